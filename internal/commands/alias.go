package commands

import (
	"context"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/options"
)

// Alias manages user name aliases stored in the global config.
type Alias struct{}

func (Alias) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "alias",
		Alias:       "al",
		Description: "Create, list and remove user aliases",
		Commands:    []string{"add", "remove", "list"},
		Options: map[string]options.OptionSpec{
			"add":    stringOpt("Alias name to create; value comes from --user"),
			"remove": stringOpt("Alias name to remove"),
			"list":   boolOpt("List aliases"),
		},
		Shorthands: map[string]string{
			"a": "add",
			"R": "remove",
			"l": "list",
		},
	}
}

func (a Alias) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(a.Describe(), "list")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		switch action {
		case "add":
			return a.add(env, opts)
		case "remove":
			name := opts.String("remove")
			if err := env.Config.RemoveGlobal("alias." + name); err != nil {
				return command.Fatal(err)
			}
			env.Out.Okf("alias %s removed", name)
			return nil
		default:
			return a.list(env)
		}
	})
}

func (Alias) add(env *command.Env, opts *options.Options) error {
	name := opts.String("add")
	if name == "" {
		return command.Fatalf("alias --add requires a name")
	}
	if !opts.IsSet("user") {
		return command.Fatalf("alias --add %s requires --user", name)
	}
	if err := env.Config.WriteGlobal("alias."+name, opts.User); err != nil {
		return command.Fatal(err)
	}
	env.Out.Okf("alias %s → %s", name, opts.User)
	return nil
}

func (Alias) list(env *command.Env) error {
	aliases := env.Config.GetStringMapString("alias")
	if len(aliases) == 0 {
		env.Out.Inf("no aliases")
		return nil
	}
	for _, name := range env.Config.Keys("alias") {
		env.Out.Kv(name, aliases[name])
	}
	return nil
}
