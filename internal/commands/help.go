package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/ui"
)

// Help lists commands or prints one command's flags.
type Help struct{}

func (Help) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "help",
		Description: "Show commands, or the flags of one command",
	}
}

func (h Help) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	if pos := opts.Argv.Positional(); len(pos) > 0 {
		return h.topic(ctx, env, pos[0])
	}
	h.overview(env)
	return nil
}

func (Help) overview(env *command.Env) {
	env.Out.Puts(ui.Title.Render("gh") + ui.Muted.Render(" · GitHub from the command line"))
	env.Out.Puts("")
	env.Out.Puts("Usage: gh <command> [flags]")
	env.Out.Puts("")

	var rows [][]string
	for _, d := range env.Registry.Descriptors() {
		rows = append(rows, []string{d.Name, d.Alias, d.Description})
	}
	env.Out.Table([]string{"COMMAND", "ALIAS", "DESCRIPTION"}, rows)

	if env.Plugins != nil {
		if plugins := env.Plugins(); len(plugins) > 0 {
			env.Out.Puts("")
			rows = rows[:0]
			for _, p := range plugins {
				rows = append(rows, []string{p.Name, p.Alias, p.Description})
			}
			env.Out.Table([]string{"PLUGIN", "ALIAS", "DESCRIPTION"}, rows)
		}
	}

	env.Out.Puts("")
	env.Out.Puts("Global flags: " + strings.Join(globalFlagNames(), ", "))
	env.Out.Tip("gh help <command> shows that command's flags")
}

func (Help) topic(ctx context.Context, env *command.Env, name string) error {
	mod, err := env.Registry.Resolve(ctx, name)
	if err != nil {
		return command.Fatal(err)
	}
	desc := mod.Descriptor()

	title := desc.Name
	if desc.Alias != "" {
		title += " (" + desc.Alias + ")"
	}
	env.Out.Puts(ui.Title.Render(title))
	if desc.Description != "" {
		env.Out.Puts(desc.Description)
	}
	if mod.Kind == command.KindPlugin {
		env.Out.Puts(ui.Muted.Render("plugin"))
	}
	env.Out.Puts("")

	shorts := map[string]string{}
	for s, target := range desc.Shorthands {
		shorts[target] = s
	}
	actions := map[string]bool{}
	for _, a := range desc.Commands {
		actions[a] = true
	}

	names := make([]string, 0, len(desc.Options))
	for n := range desc.Options {
		names = append(names, n)
	}
	sort.Strings(names)

	var rows [][]string
	for _, n := range names {
		spec := desc.Options[n]
		flag := "--" + n
		if s, ok := shorts[n]; ok {
			flag = "-" + s + ", " + flag
		}
		kind := string(spec.Type)
		if spec.Type == options.TypeEnum {
			kind = strings.Join(spec.Values, "|")
		}
		usage := spec.Usage
		if actions[n] {
			usage = "[action] " + usage
		}
		if n == desc.Iterative {
			usage += " (repeatable)"
		}
		rows = append(rows, []string{flag, kind, usage})
	}
	if len(rows) == 0 {
		env.Out.Inf("no flags")
		return nil
	}
	env.Out.Table([]string{"FLAG", "TYPE", "USAGE"}, rows)
	return nil
}

func globalFlagNames() []string {
	names := options.UniversalFlags()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("--%s", n)
	}
	return out
}
