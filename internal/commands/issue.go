package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/ui"
)

// Issue lists, creates, comments on and changes the state of issues.
type Issue struct{}

func (Issue) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "issue",
		Alias:       "is",
		Description: "List, create, comment on, open and close issues",
		Commands:    []string{"list", "new", "open", "close", "comment", "browser"},
		Options: map[string]options.OptionSpec{
			"list":      boolOpt("List issues"),
			"new":       boolOpt("Create an issue"),
			"open":      boolOpt("Reopen an issue"),
			"close":     boolOpt("Close an issue"),
			"comment":   stringOpt("Comment on an issue"),
			"browser":   boolOpt("Open the issue page in a browser"),
			"all":       boolOpt("List issues across every repository of --user"),
			"state":     enumOpt("Issue state to list", "open", "closed", "all"),
			"assignee":  stringOpt("Only issues assigned to this user"),
			"label":     listOpt("Labels to filter by or apply"),
			"milestone": numberOpt("Milestone number to filter by or apply"),
			"detailed":  boolOpt("Show issue bodies"),
			"title":     stringOpt("Title of a new issue"),
			"message":   stringOpt("Body of a new issue"),
			"number":    listOpt("Issue number"),
		},
		Shorthands: map[string]string{
			"l": "list",
			"N": "new",
			"o": "open",
			"C": "close",
			"c": "comment",
			"B": "browser",
			"a": "all",
			"S": "state",
			"A": "assignee",
			"L": "label",
			"M": "milestone",
			"d": "detailed",
			"t": "title",
			"m": "message",
			"n": "number",
		},
		Iterative: "number",
	}
}

// Payload maps "gh is 42" to --browser --number 42 and
// "gh is 'title' 'body'" to --new.
func (Issue) Payload(positional []string, opts *options.Options) error {
	switch {
	case len(positional) == 0:
		return nil
	case numericPayload(positional):
		opts.Set("browser", true)
		opts.Set("number", trimHashes(positional))
	default:
		opts.Set("new", true)
		opts.Set("title", positional[0])
		if len(positional) > 1 {
			opts.Set("message", positional[1])
		}
	}
	return nil
}

func (i Issue) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(i.Describe(), "list")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		if action == "list" && opts.Bool("all") {
			return i.listAll(ctx, env, opts)
		}
		owner, repo, err := requireRepo(opts)
		if err != nil {
			return err
		}
		switch action {
		case "new":
			return i.create(ctx, env, opts, owner, repo)
		case "open", "close":
			return i.setState(ctx, env, opts, owner, repo, action)
		case "comment":
			return i.comment(ctx, env, opts, owner, repo)
		case "browser":
			if opts.Number > 0 {
				return openBrowser(ctx, env, webURL(env, owner, repo, "issues", strconv.Itoa(opts.Number)))
			}
			return openBrowser(ctx, env, webURL(env, owner, repo, "issues"))
		default:
			return i.list(ctx, env, opts, owner, repo)
		}
	})
}

func issueFilter(opts *options.Options) github.IssueFilter {
	f := github.IssueFilter{
		State:    opts.String("state"),
		Assignee: opts.String("assignee"),
		Labels:   opts.List("label"),
	}
	if m := opts.Int("milestone"); m > 0 {
		f.Milestone = strconv.Itoa(m)
	}
	return f
}

func (i Issue) list(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	issues, err := api.ListIssues(ctx, owner, repo, issueFilter(opts))
	if err != nil {
		return command.APIWarning(err, "listing issues for %s/%s", owner, repo)
	}
	i.print(env, opts, owner+"/"+repo, issues)
	return nil
}

func (i Issue) listAll(ctx context.Context, env *command.Env, opts *options.Options) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	repos, err := api.ListRepos(ctx, opts.User, "owner")
	if err != nil {
		return command.APIWarning(err, "listing repositories of %s", opts.User)
	}
	for _, r := range repos {
		if r.OpenIssues == 0 {
			continue
		}
		issues, err := api.ListIssues(ctx, r.Owner, r.Name, issueFilter(opts))
		if err != nil {
			return command.APIWarning(err, "listing issues for %s", r.FullName)
		}
		i.print(env, opts, r.FullName, issues)
	}
	return nil
}

func (Issue) print(env *command.Env, opts *options.Options, fullName string, issues []github.Issue) {
	if len(issues) == 0 {
		return
	}
	env.Out.Header(fullName)
	if opts.Bool("detailed") {
		for _, is := range issues {
			env.Out.Putsf("#%d %s %s", is.Number, ui.State(is.State), ui.Accent.Render(is.Title))
			env.Out.Puts(ui.Muted.Render(fmt.Sprintf("%s · %s · %d comments", is.Author, shortDate(is.CreatedAt), is.Comments)))
			if len(is.Labels) > 0 {
				env.Out.Puts(ui.Muted.Render("labels: " + strings.Join(is.Labels, ", ")))
			}
			if is.Body != "" {
				env.Out.Markdown(is.Body)
			}
			env.Out.Puts(ui.Muted.Render(is.URL))
			env.Out.Puts("")
		}
		return
	}
	rows := make([][]string, len(issues))
	for n, is := range issues {
		rows[n] = []string{"#" + strconv.Itoa(is.Number), ui.State(is.State), is.Title, is.URL}
	}
	env.Out.Table(nil, rows)
}

func (Issue) create(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	title := opts.String("title")
	if title == "" {
		return command.Fatalf("issue --new requires --title")
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	is, err := api.CreateIssue(ctx, owner, repo, github.IssueRequest{
		Title:     title,
		Body:      withSignature(env, opts.String("message")),
		Labels:    opts.List("label"),
		Assignee:  opts.String("assignee"),
		Milestone: opts.Int("milestone"),
	})
	if err != nil {
		return command.APIWarning(err, "creating issue on %s/%s", owner, repo)
	}
	env.Out.Okf("created issue #%d on %s/%s", is.Number, owner, repo)
	env.Out.Inf(is.URL)
	return nil
}

func (Issue) setState(ctx context.Context, env *command.Env, opts *options.Options, owner, repo, action string) error {
	n, err := requireNumber(opts, action)
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	state, verb := "closed", "closed"
	if action == "open" {
		state, verb = "open", "reopened"
	}
	if _, err := api.SetIssueState(ctx, owner, repo, n, state); err != nil {
		return command.APIWarning(err, "issue #%d", n)
	}
	env.Out.Okf("%s issue #%d on %s/%s", verb, n, owner, repo)
	return nil
}

func (Issue) comment(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	n, err := requireNumber(opts, "comment")
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	c, err := api.CreateComment(ctx, owner, repo, n, withSignature(env, opts.String("comment")))
	if err != nil {
		return command.APIWarning(err, "issue #%d", n)
	}
	env.Out.Okf("commented on issue #%d", n)
	env.Out.Inf(c.URL)
	return nil
}
