package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/ui"
)

// Gist lists, creates, forks and deletes gists.
type Gist struct{}

func (Gist) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "gist",
		Alias:       "gi",
		Description: "List, create, fork and delete gists",
		Commands:    []string{"list", "new", "fork", "delete", "browser"},
		Options: map[string]options.OptionSpec{
			"list":        boolOpt("List gists of --user"),
			"new":         boolOpt("Create a gist from --content or file arguments"),
			"fork":        stringOpt("Fork the gist with this id"),
			"delete":      listOpt("Delete the gist with this id"),
			"browser":     stringOpt("Open the gist with this id in a browser"),
			"content":     stringOpt("Content of a new single-file gist"),
			"description": stringOpt("Description of a new gist"),
			"private":     boolOpt("Make a new gist secret"),
		},
		Shorthands: map[string]string{
			"l": "list",
			"N": "new",
			"f": "fork",
			"D": "delete",
			"B": "browser",
			"c": "content",
			"d": "description",
			"p": "private",
		},
		Iterative: "delete",
	}
}

func (g Gist) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(g.Describe(), "list")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		switch action {
		case "new":
			return g.create(ctx, env, opts)
		case "fork":
			return g.fork(ctx, env, opts.String("fork"))
		case "delete":
			return g.delete(ctx, env, opts.String("delete"))
		case "browser":
			return openBrowser(ctx, env, "https://gist.github.com/"+opts.String("browser"))
		default:
			return g.list(ctx, env, opts)
		}
	})
}

func (Gist) list(ctx context.Context, env *command.Env, opts *options.Options) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	user := opts.User
	if !opts.IsSet("user") {
		user = opts.LoggedUser
	}
	gists, err := api.ListGists(ctx, user)
	if err != nil {
		return command.APIWarning(err, "listing gists of %s", user)
	}
	rows := make([][]string, len(gists))
	for i, g := range gists {
		vis := "public"
		if !g.Public {
			vis = "secret"
		}
		desc := g.Description
		if desc == "" {
			desc = strings.Join(g.Files, ", ")
		}
		rows[i] = []string{g.ID, ui.Muted.Render(vis), desc, g.URL}
	}
	env.Out.Table(nil, rows)
	return nil
}

func (Gist) create(ctx context.Context, env *command.Env, opts *options.Options) error {
	files := map[string]string{}
	if content := opts.String("content"); content != "" {
		files["gistfile1.txt"] = content
	}
	for _, path := range opts.Argv.Positional() {
		data, err := os.ReadFile(path)
		if err != nil {
			return command.Fatal(fmt.Errorf("reading %s: %w", path, err))
		}
		files[filepath.Base(path)] = string(data)
	}
	if len(files) == 0 {
		return command.Fatalf("gist --new requires --content or a file")
	}

	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	g, err := api.CreateGist(ctx, github.GistRequest{
		Description: opts.String("description"),
		Public:      !opts.Bool("private"),
		Files:       files,
	})
	if err != nil {
		return command.APIWarning(err, "creating gist")
	}
	env.Out.Okf("created gist %s", g.ID)
	env.Out.Inf(g.URL)
	return nil
}

func (Gist) fork(ctx context.Context, env *command.Env, id string) error {
	if id == "" {
		return command.Fatalf("gist --fork requires an id")
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	g, err := api.ForkGist(ctx, id)
	if err != nil {
		return command.APIWarning(err, "gist %s", id)
	}
	env.Out.Okf("forked gist %s as %s", id, g.ID)
	env.Out.Inf(g.URL)
	return nil
}

func (Gist) delete(ctx context.Context, env *command.Env, id string) error {
	if id == "" {
		return command.Fatalf("gist --delete requires an id")
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	if err := api.DeleteGist(ctx, id); err != nil {
		return command.APIWarning(err, "gist %s", id)
	}
	env.Out.Okf("deleted gist %s", id)
	return nil
}
