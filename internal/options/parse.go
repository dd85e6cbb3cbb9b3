package options

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// ErrParse wraps every argv parsing failure.
var ErrParse = errors.New("invalid arguments")

// universal flags are accepted by every command.
var universal = map[string]OptionSpec{
	"help":     {Type: TypeBool, Usage: "Show help"},
	"version":  {Type: TypeBool, Usage: "Show version"},
	"verbose":  {Type: TypeBool, Usage: "Log progress"},
	"debug":    {Type: TypeBool, Usage: "Log everything, including hook commands"},
	"no-hooks": {Type: TypeBool, Usage: "Do not run hooks"},
	"no-color": {Type: TypeBool, Usage: "Disable colored output"},
	"user":     {Type: TypeString, Usage: "GitHub user or organization"},
	"repo":     {Type: TypeString, Usage: "Repository name"},
	"remote":   {Type: TypeString, Usage: "Git remote to derive the repository from"},
}

var reservedShorthands = map[string]string{
	"h": "help",
	"v": "version",
	"u": "user",
	"r": "repo",
}

// UniversalFlags returns the names of the flags every command accepts.
func UniversalFlags() []string {
	return sortedKeys(universal)
}

// Detection is the result of the first, lenient parse.
type Detection struct {
	// Command is the name to resolve. It is "help" or "version" when those
	// were forced by flags.
	Command string
	// Topic is the command name the user asked help for.
	Topic string
	// Argv is the command line for the second parse. Forced help and
	// version commands get a rewritten argv.
	Argv    []string
	Verbose bool
	Debug   bool
	NoHooks bool
	NoColor bool
}

// Detect finds the command name using only the global flags. Unknown
// flags are ignored at this stage and never take a value, so a flag given
// before the command name cannot swallow it.
func Detect(argv []string) (Detection, error) {
	fs := pflag.NewFlagSet("gh", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsAllowlist.UnknownFlags = true
	help := fs.BoolP("help", "h", false, "")
	version := fs.BoolP("version", "v", false, "")
	verbose := fs.Bool("verbose", false, "")
	debug := fs.Bool("debug", false, "")
	noHooks := fs.Bool("no-hooks", false, "")
	noColor := fs.Bool("no-color", false, "")

	if err := fs.Parse(argv); err != nil {
		return Detection{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	d := Detection{
		Argv:    argv,
		Verbose: *verbose,
		Debug:   *debug,
		NoHooks: *noHooks,
		NoColor: *noColor,
	}
	d.Command = commandName(argv)

	switch {
	case *version:
		d.Topic = d.Command
		d.Command = "version"
		d.Argv = append([]string{"version"}, globalPassthrough(d)...)
	case *help || d.Command == "":
		d.Topic = d.Command
		d.Command = "help"
		d.Argv = []string{"help"}
		if d.Topic != "" && d.Topic != "help" {
			d.Argv = append(d.Argv, d.Topic)
		}
		d.Argv = append(d.Argv, globalPassthrough(d)...)
	}
	return d, nil
}

// commandName returns the first positional token of argv. Universal flags
// that carry a value skip it; every other flag is read as a boolean.
func commandName(argv []string) string {
	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		switch {
		case tok == "--":
			if i+1 < len(argv) {
				return argv[i+1]
			}
			return ""
		case len(tok) > 1 && tok[0] == '-':
			if takesValue(tok) {
				i++
			}
		default:
			return tok
		}
	}
	return ""
}

func takesValue(tok string) bool {
	if strings.Contains(tok, "=") {
		return false
	}
	name := strings.TrimPrefix(tok, "--")
	if name == tok {
		if target, ok := reservedShorthands[tok[1:]]; ok {
			name = target
		}
	}
	spec, ok := universal[name]
	return ok && spec.Type != TypeBool
}

// globalPassthrough keeps the logging and hook flags on a rewritten argv.
func globalPassthrough(d Detection) []string {
	var out []string
	if d.Verbose {
		out = append(out, "--verbose")
	}
	if d.Debug {
		out = append(out, "--debug")
	}
	if d.NoHooks {
		out = append(out, "--no-hooks")
	}
	if d.NoColor {
		out = append(out, "--no-color")
	}
	return out
}

// Parse strictly parses argv against desc plus the universal flags.
// Unknown flags and out-of-range enum values are errors.
func Parse(desc Descriptor, argv []string) (*Options, error) {
	expanded := expandShorthands(desc, argv)
	cooked := splitValues(expanded)

	fs := pflag.NewFlagSet(desc.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = true

	for name, spec := range universal {
		define(fs, name, reverseShorthand(reservedShorthands, name), spec)
	}
	for name, spec := range desc.Options {
		define(fs, name, desc.ShorthandFor(name), spec)
	}

	if err := fs.Parse(expanded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	opts := New()
	opts.Command = desc.Name
	opts.Argv = Argv{
		Original: slices.Clone(argv),
		Remain:   fs.Args(),
		Cooked:   cooked,
	}

	fs.VisitAll(func(f *pflag.Flag) {
		value := flagValue(fs, f)
		if _, ok := universal[f.Name]; ok {
			switch f.Name {
			case "user":
				opts.User = value.(string)
			case "repo":
				opts.Repo = value.(string)
			case "remote":
				opts.Remote = value.(string)
			case "no-hooks":
				opts.Hooks = !value.(bool)
			case "verbose":
				opts.Verbose = value.(bool)
			case "debug":
				opts.Debug = value.(bool)
			case "no-color":
				opts.NoColor = value.(bool)
			}
			if f.Changed {
				opts.changed[f.Name] = true
			}
			return
		}
		if f.Changed {
			opts.Set(f.Name, value)
			return
		}
		opts.setDefault(f.Name, value)
	})
	return opts, nil
}

func define(fs *pflag.FlagSet, name, short string, spec OptionSpec) {
	switch spec.Type {
	case TypeBool:
		fs.BoolP(name, short, false, spec.Usage)
	case TypeNumber:
		fs.IntP(name, short, 0, spec.Usage)
	case TypeList:
		fs.StringSliceP(name, short, nil, spec.Usage)
	case TypeEnum:
		fs.VarP(&enumValue{allowed: spec.Values}, name, short, spec.Usage)
	default:
		fs.StringP(name, short, "", spec.Usage)
	}
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	switch f.Value.Type() {
	case "bool":
		v, _ := fs.GetBool(f.Name)
		return v
	case "int":
		v, _ := fs.GetInt(f.Name)
		return v
	case "stringSlice":
		v, _ := fs.GetStringSlice(f.Name)
		return v
	default:
		return f.Value.String()
	}
}

func reverseShorthand(m map[string]string, name string) string {
	for short, target := range m {
		if target == name {
			return short
		}
	}
	return ""
}

// Cook expands shorthands to long flag names and splits --k=v into two
// tokens. Tokens after "--" are left alone. The result is the recorded form
// of the command line; flags are parsed from the unsplit form so that
// --bool=false keeps its value.
func Cook(desc Descriptor, argv []string) []string {
	return splitValues(expandShorthands(desc, argv))
}

// expandShorthands rewrites -s and -s=v to --name and --name=v.
func expandShorthands(desc Descriptor, argv []string) []string {
	out := make([]string, 0, len(argv))
	for i, tok := range argv {
		if tok == "--" {
			out = append(out, argv[i:]...)
			break
		}
		if len(tok) < 2 || tok[0] != '-' || tok[1] == '-' {
			out = append(out, tok)
			continue
		}
		short, value, hasValue := strings.Cut(tok[1:], "=")
		name, ok := desc.Shorthands[short]
		if !ok {
			name, ok = reservedShorthands[short]
		}
		switch {
		case !ok:
			out = append(out, tok)
		case hasValue:
			out = append(out, "--"+name+"="+value)
		default:
			out = append(out, "--"+name)
		}
	}
	return out
}

func splitValues(argv []string) []string {
	out := make([]string, 0, len(argv))
	for i, tok := range argv {
		if tok == "--" {
			out = append(out, argv[i:]...)
			break
		}
		if strings.HasPrefix(tok, "--") {
			if name, value, ok := strings.Cut(tok, "="); ok {
				out = append(out, name, value)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// enumValue is a pflag.Value restricted to a fixed set of strings.
type enumValue struct {
	allowed []string
	value   string
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(s string) error {
	if !slices.Contains(e.allowed, s) {
		return fmt.Errorf("must be one of %s", strings.Join(e.allowed, ", "))
	}
	e.value = s
	return nil
}

func (e *enumValue) Type() string { return "enum" }
