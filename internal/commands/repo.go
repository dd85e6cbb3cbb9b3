package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/ui"
)

// Repo lists, inspects, creates, forks, deletes and clones repositories.
type Repo struct{}

func (Repo) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "repo",
		Alias:       "re",
		Description: "List, create, fork, clone and delete repositories",
		Commands:    []string{"list", "info", "new", "fork", "delete", "clone", "browser"},
		Options: map[string]options.OptionSpec{
			"list":         boolOpt("List repositories of --user or --organization"),
			"info":         boolOpt("Show a repository"),
			"new":          stringOpt("Create a repository with this name"),
			"fork":         stringOpt("Fork owner/repo"),
			"delete":       listOpt("Delete the repository with this name"),
			"clone":        boolOpt("Clone --user/--repo"),
			"browser":      boolOpt("Open the repository page in a browser"),
			"type":         enumOpt("Repositories to list", "all", "owner", "public", "private", "member", "forks", "sources"),
			"organization": stringOpt("Organization to list in or create under"),
			"description":  stringOpt("Description of a new repository"),
			"private":      boolOpt("Make a new repository private"),
			"init":         boolOpt("Create a new repository with a README"),
		},
		Shorthands: map[string]string{
			"l": "list",
			"I": "info",
			"N": "new",
			"f": "fork",
			"D": "delete",
			"c": "clone",
			"B": "browser",
			"t": "type",
			"O": "organization",
			"d": "description",
			"p": "private",
			"i": "init",
		},
		Iterative: "delete",
	}
}

func (r Repo) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(r.Describe(), "list")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		switch action {
		case "info":
			return r.info(ctx, env, opts)
		case "new":
			return r.create(ctx, env, opts)
		case "fork":
			return r.fork(ctx, env, opts)
		case "delete":
			return r.delete(ctx, env, opts)
		case "clone":
			return r.clone(ctx, env, opts)
		case "browser":
			owner, repo, err := requireRepo(opts)
			if err != nil {
				return err
			}
			return openBrowser(ctx, env, webURL(env, owner, repo))
		default:
			return r.list(ctx, env, opts)
		}
	})
}

func (Repo) list(ctx context.Context, env *command.Env, opts *options.Options) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	kind := opts.String("type")
	var repos []github.Repo
	if org := opts.String("organization"); org != "" {
		repos, err = api.ListOrgRepos(ctx, org, kind)
		if err != nil {
			return command.APIWarning(err, "listing repositories of %s", org)
		}
	} else {
		repos, err = api.ListRepos(ctx, opts.User, kind)
		if err != nil {
			return command.APIWarning(err, "listing repositories of %s", opts.User)
		}
	}

	rows := make([][]string, len(repos))
	for i, r := range repos {
		var flags []string
		if r.Private {
			flags = append(flags, "private")
		}
		if r.Fork {
			flags = append(flags, "fork")
		}
		rows[i] = []string{r.FullName, ui.Muted.Render(strings.Join(flags, ",")), "★" + strconv.Itoa(r.Stars), r.Description}
	}
	env.Out.Table(nil, rows)
	return nil
}

func (Repo) info(ctx context.Context, env *command.Env, opts *options.Options) error {
	owner, name, err := requireRepo(opts)
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	r, err := api.GetRepo(ctx, owner, name)
	if err != nil {
		return command.APIWarning(err, "repository %s/%s", owner, name)
	}
	env.Out.Puts(ui.Title.Render(r.FullName))
	if r.Description != "" {
		env.Out.Puts(r.Description)
	}
	env.Out.Kv("default branch", r.DefaultBranch)
	env.Out.Kv("stars", strconv.Itoa(r.Stars))
	env.Out.Kv("forks", strconv.Itoa(r.Forks))
	env.Out.Kv("open issues", strconv.Itoa(r.OpenIssues))
	env.Out.Kv("clone", r.CloneURL)
	env.Out.Kv("url", r.URL)
	return nil
}

func (Repo) create(ctx context.Context, env *command.Env, opts *options.Options) error {
	name := opts.String("new")
	if name == "" {
		return command.Fatalf("repo --new requires a name")
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	r, err := api.CreateRepo(ctx, opts.String("organization"), github.RepoRequest{
		Name:        name,
		Description: opts.String("description"),
		Private:     opts.Bool("private"),
		Init:        opts.Bool("init"),
	})
	if err != nil {
		return command.APIWarning(err, "creating repository %s", name)
	}
	env.Out.Okf("created repository %s", r.FullName)
	env.Out.Inf(r.URL)
	return nil
}

func (Repo) fork(ctx context.Context, env *command.Env, opts *options.Options) error {
	owner, name, ok := strings.Cut(opts.String("fork"), "/")
	if !ok || owner == "" || name == "" {
		return command.Fatalf("repo --fork expects owner/repo")
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	r, err := api.ForkRepo(ctx, owner, name, opts.String("organization"))
	if err != nil {
		return command.APIWarning(err, "forking %s/%s", owner, name)
	}
	env.Out.Okf("forked %s/%s to %s", owner, name, r.FullName)
	return nil
}

func (Repo) delete(ctx context.Context, env *command.Env, opts *options.Options) error {
	name := opts.String("delete")
	if name == "" {
		return command.Fatalf("repo --delete requires a name")
	}
	owner := opts.String("organization")
	if owner == "" {
		owner = opts.LoggedUser
	}
	if owner == "" {
		return command.Fatalf("repo --delete: unknown owner; log in or pass --organization")
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	if err := api.DeleteRepo(ctx, owner, name); err != nil {
		return command.APIWarning(err, "repository %s/%s", owner, name)
	}
	env.Out.Okf("deleted repository %s/%s", owner, name)
	return nil
}

func (Repo) clone(ctx context.Context, env *command.Env, opts *options.Options) error {
	owner, name, err := requireRepo(opts)
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	r, err := api.GetRepo(ctx, owner, name)
	if err != nil {
		return command.APIWarning(err, "repository %s/%s", owner, name)
	}
	url := r.SSHURL
	if url == "" {
		url = r.CloneURL
	}
	if err := env.Git.Clone(ctx, url, ""); err != nil {
		return command.Warning(err)
	}
	env.Out.Okf("cloned %s", r.FullName)
	return nil
}
