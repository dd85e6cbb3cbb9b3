package options

import (
	"errors"
	"fmt"
	"sort"
)

// Type is the value type of a command option.
type Type string

const (
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeNumber Type = "number"
	// TypeList accepts repeated flags and comma-separated values.
	TypeList Type = "list"
	// TypeEnum is a string restricted to OptionSpec.Values.
	TypeEnum Type = "enum"
)

// OptionSpec declares one command flag.
type OptionSpec struct {
	Type   Type     `toml:"type"`
	Values []string `toml:"values"`
	Usage  string   `toml:"usage"`
	// ExpandAlias applies the alias table to the flag's value.
	ExpandAlias bool `toml:"expand_alias"`
}

// Descriptor is a command's static schema.
type Descriptor struct {
	Name        string `toml:"-"`
	Alias       string `toml:"alias"`
	Description string `toml:"description"`
	// Commands lists the action flags. When none is given explicitly the
	// command picks its default action.
	Commands   []string              `toml:"commands"`
	Options    map[string]OptionSpec `toml:"options"`
	Shorthands map[string]string     `toml:"shorthands"`
	// Iterative names a list flag; the command body runs once per value.
	Iterative string `toml:"iterative"`
	// Payload marks commands that interpret bare positional arguments.
	Payload bool `toml:"payload"`
}

// Validate checks the descriptor's internal consistency.
func (d Descriptor) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	for _, name := range sortedKeys(d.Options) {
		spec := d.Options[name]
		if _, ok := universal[name]; ok {
			errs = append(errs, fmt.Errorf("option %q shadows a global flag", name))
		}
		switch spec.Type {
		case TypeString, TypeBool, TypeNumber, TypeList:
		case TypeEnum:
			if len(spec.Values) == 0 {
				errs = append(errs, fmt.Errorf("enum option %q has no values", name))
			}
		default:
			errs = append(errs, fmt.Errorf("option %q has unknown type %q", name, spec.Type))
		}
	}
	for _, short := range sortedKeys(d.Shorthands) {
		target := d.Shorthands[short]
		if len(short) != 1 {
			errs = append(errs, fmt.Errorf("shorthand %q must be a single letter", short))
		}
		if _, ok := reservedShorthands[short]; ok {
			errs = append(errs, fmt.Errorf("shorthand %q is reserved", short))
		}
		if _, ok := d.Options[target]; !ok {
			errs = append(errs, fmt.Errorf("shorthand %q targets unknown option %q", short, target))
		}
	}
	for _, c := range d.Commands {
		if _, ok := d.Options[c]; !ok {
			errs = append(errs, fmt.Errorf("action %q is not a declared option", c))
		}
	}
	if d.Iterative != "" {
		spec, ok := d.Options[d.Iterative]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("iterative option %q is not declared", d.Iterative))
		case spec.Type != TypeList:
			errs = append(errs, fmt.Errorf("iterative option %q must be a list", d.Iterative))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid descriptor %q: %w", d.Name, errors.Join(errs...))
	}
	return nil
}

// HasAction reports whether name is one of the descriptor's action flags.
func (d Descriptor) HasAction(name string) bool {
	for _, c := range d.Commands {
		if c == name {
			return true
		}
	}
	return false
}

// ShorthandFor returns the shorthand letter of an option, or "".
func (d Descriptor) ShorthandFor(name string) string {
	for short, target := range d.Shorthands {
		if target == name {
			return short
		}
	}
	return ""
}

// OptionNames returns the option names in sorted order.
func (d Descriptor) OptionNames() []string {
	return sortedKeys(d.Options)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
