// Package options turns raw argv into a normalized Options value.
//
// Parsing happens twice. Detect runs first with only the global flags to
// find the command name. Parse then runs strictly against the resolved
// command's Descriptor. Normalize fills the contextual defaults (user,
// repository, branch) and expands aliases.
package options

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Argv keeps the raw and processed forms of the command line.
type Argv struct {
	Original []string
	// Remain holds positional tokens, command name first.
	Remain []string
	// Cooked is Original with shorthands expanded and --k=v split.
	Cooked []string
}

// Positional returns the positional tokens after the command name.
func (a Argv) Positional() []string {
	if len(a.Remain) <= 1 {
		return nil
	}
	return a.Remain[1:]
}

// Options is the normalized state for one command invocation.
type Options struct {
	// Command is the canonical name of the resolved command.
	Command       string
	User          string
	Repo          string
	Remote        string
	CurrentBranch string
	LoggedUser    string
	RemoteUser    string
	// Number is the current iteration value when the iterative flag is
	// "number".
	Number int

	Hooks   bool
	Verbose bool
	Debug   bool
	NoColor bool

	Argv Argv

	flags   map[string]any
	changed map[string]bool
}

// New returns empty options with hooks enabled.
func New() *Options {
	return &Options{
		Hooks:   true,
		flags:   map[string]any{},
		changed: map[string]bool{},
	}
}

// Clone deep-copies the options so iterations never share mutable state.
func (o *Options) Clone() *Options {
	c := *o
	c.flags = make(map[string]any, len(o.flags))
	for k, v := range o.flags {
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		c.flags[k] = v
	}
	c.changed = maps.Clone(o.changed)
	c.Argv = Argv{
		Original: slices.Clone(o.Argv.Original),
		Remain:   slices.Clone(o.Argv.Remain),
		Cooked:   slices.Clone(o.Argv.Cooked),
	}
	return &c
}

// Set stores a flag value and marks it as explicitly given.
func (o *Options) Set(name string, value any) {
	if o.flags == nil {
		o.flags = map[string]any{}
	}
	if o.changed == nil {
		o.changed = map[string]bool{}
	}
	o.flags[name] = value
	o.changed[name] = true
}

// setDefault stores a flag value without marking it as given.
func (o *Options) setDefault(name string, value any) {
	if o.flags == nil {
		o.flags = map[string]any{}
	}
	o.flags[name] = value
}

// Iterate fixes the iterative flag to a single value for one iteration.
// Whether the flag counts as given is unchanged. A "number" flag also
// sets Number; a non-numeric value leaves it zero.
func (o *Options) Iterate(name, value string) {
	o.setDefault(name, []string{value})
	if name == "number" {
		o.Number, _ = strconv.Atoi(value)
	}
}

// IsSet reports whether the flag was given explicitly.
func (o *Options) IsSet(name string) bool {
	return o.changed[name]
}

// Has reports whether the flag has any value, explicit or default.
func (o *Options) Has(name string) bool {
	_, ok := o.flags[name]
	return ok
}

// String returns a string flag. A list flag yields its first element.
func (o *Options) String(name string) string {
	switch v := o.flags[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

// Bool returns a bool flag.
func (o *Options) Bool(name string) bool {
	b, _ := o.flags[name].(bool)
	return b
}

// Int returns a number flag. A string value is parsed; failures yield 0.
func (o *Options) Int(name string) int {
	switch v := o.flags[name].(type) {
	case int:
		return v
	case string, []string:
		n, _ := strconv.Atoi(o.String(name))
		return n
	}
	return 0
}

// List returns a list flag. A string flag yields a one-element list.
func (o *Options) List(name string) []string {
	switch v := o.flags[name].(type) {
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// ActionGiven reports whether any of desc's action flags was given.
func (o *Options) ActionGiven(desc Descriptor) bool {
	for _, c := range desc.Commands {
		if o.IsSet(c) {
			return true
		}
	}
	return false
}

// Action returns the first of desc's action flags that was given, or
// fallback when none was.
func (o *Options) Action(desc Descriptor, fallback string) string {
	for _, c := range desc.Commands {
		if o.IsSet(c) {
			return c
		}
	}
	return fallback
}

// TemplateData returns the map view used by hook templates.
func (o *Options) TemplateData() map[string]any {
	data := make(map[string]any, len(o.flags)+8)
	for k, v := range o.flags {
		if list, ok := v.([]string); ok {
			v = strings.Join(list, ",")
		}
		data[k] = v
	}
	data["command"] = o.Command
	data["user"] = o.User
	data["repo"] = o.Repo
	data["remote"] = o.Remote
	data["currentBranch"] = o.CurrentBranch
	data["loggedUser"] = o.LoggedUser
	data["remoteUser"] = o.RemoteUser
	if o.Number != 0 {
		data["number"] = o.Number
	}
	return data
}
