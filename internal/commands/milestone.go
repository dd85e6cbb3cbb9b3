package commands

import (
	"context"
	"strconv"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/ui"
)

// Milestone lists repository milestones.
type Milestone struct{}

func (Milestone) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "milestone",
		Alias:       "ms",
		Description: "List milestones",
		Commands:    []string{"list"},
		Options: map[string]options.OptionSpec{
			"list":         boolOpt("List milestones of the repository"),
			"all":          boolOpt("List milestones of every repository of --organization"),
			"organization": stringOpt("Organization to list with --all"),
		},
		Shorthands: map[string]string{
			"l": "list",
			"a": "all",
			"O": "organization",
		},
	}
}

func (m Milestone) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	return invoke(ctx, env, opts, "list", func(ctx context.Context) error {
		api, err := env.Client(ctx)
		if err != nil {
			return err
		}
		if opts.Bool("all") {
			return m.listAll(ctx, env, api, opts)
		}
		owner, repo, err := requireRepo(opts)
		if err != nil {
			return err
		}
		ms, err := api.ListMilestones(ctx, owner, repo)
		if err != nil {
			return command.APIWarning(err, "listing milestones of %s/%s", owner, repo)
		}
		m.print(env, owner+"/"+repo, ms)
		return nil
	})
}

func (m Milestone) listAll(ctx context.Context, env *command.Env, api github.API, opts *options.Options) error {
	org := opts.String("organization")
	var (
		repos []github.Repo
		err   error
	)
	if org != "" {
		repos, err = api.ListOrgRepos(ctx, org, "all")
	} else {
		org = opts.User
		repos, err = api.ListRepos(ctx, org, "owner")
	}
	if err != nil {
		return command.APIWarning(err, "listing repositories of %s", org)
	}
	for _, r := range repos {
		if err := ctx.Err(); err != nil {
			return err
		}
		ms, err := api.ListMilestones(ctx, r.Owner, r.Name)
		if err != nil {
			env.Out.Warn(command.APIWarning(err, "listing milestones of %s", r.FullName).Error())
			continue
		}
		if len(ms) > 0 {
			m.print(env, r.FullName, ms)
		}
	}
	return nil
}

func (Milestone) print(env *command.Env, repo string, ms []github.Milestone) {
	env.Out.Header(repo)
	if len(ms) == 0 {
		env.Out.Inf("no milestones")
		return
	}
	rows := make([][]string, len(ms))
	for i, m := range ms {
		due := ""
		if !m.DueOn.IsZero() {
			due = shortDate(m.DueOn)
		}
		rows[i] = []string{"#" + strconv.Itoa(m.Number), m.Title, strconv.Itoa(m.OpenIssues) + " open", ui.Muted.Render(due)}
	}
	env.Out.Table(nil, rows)
}
