package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/git"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/tui"
	"github.com/rnwolfe/gh/internal/ui"
)

// pickPullRequest is swapped in tests.
var pickPullRequest = tui.PickPullRequest

// PullRequest lists, inspects, fetches, merges, submits and forwards pull
// requests.
type PullRequest struct{}

func (PullRequest) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "pull-request",
		Alias:       "pr",
		Description: "List, fetch, merge, submit and forward pull requests",
		Commands:    []string{"list", "info", "merge", "close", "open", "fetch", "comment", "browser", "submit", "fwd"},
		Options: map[string]options.OptionSpec{
			"list":        boolOpt("List pull requests"),
			"info":        boolOpt("Show a pull request"),
			"merge":       boolOpt("Merge a pull request"),
			"close":       boolOpt("Close a pull request"),
			"open":        boolOpt("Reopen a pull request"),
			"fetch":       boolOpt("Fetch a pull request into a local branch"),
			"comment":     stringOpt("Comment on a pull request"),
			"browser":     boolOpt("Open the pull request page in a browser"),
			"submit":      {Type: options.TypeString, Usage: "Open a pull request from the current branch to this user's repository", ExpandAlias: true},
			"fwd":         {Type: options.TypeString, Usage: "Forward a pull request to this user's repository", ExpandAlias: true},
			"all":         boolOpt("List pull requests across every repository of --user"),
			"state":       enumOpt("Pull request state to list", "open", "closed", "all"),
			"method":      enumOpt("Merge method", "merge", "squash", "rebase"),
			"branch":      stringOpt("Local branch for --fetch, or base branch for --submit"),
			"title":       stringOpt("Title for --submit or merge commit"),
			"description": stringOpt("Body for --submit"),
			"number":      listOpt("Pull request number"),
		},
		Shorthands: map[string]string{
			"l": "list",
			"I": "info",
			"M": "merge",
			"C": "close",
			"o": "open",
			"f": "fetch",
			"c": "comment",
			"B": "browser",
			"s": "submit",
			"F": "fwd",
			"a": "all",
			"S": "state",
			"b": "branch",
			"t": "title",
			"D": "description",
			"n": "number",
		},
		Iterative: "number",
	}
}

// Payload maps "gh pr 42" to --fetch --number 42.
func (PullRequest) Payload(positional []string, opts *options.Options) error {
	if numericPayload(positional) {
		opts.Set("fetch", true)
		opts.Set("number", trimHashes(positional))
	}
	return nil
}

func (p PullRequest) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(p.Describe(), "list")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		if action == "list" && opts.Bool("all") {
			return p.listAll(ctx, env, opts)
		}
		owner, repo, err := requireRepo(opts)
		if err != nil {
			return err
		}
		switch action {
		case "info":
			return p.info(ctx, env, opts, owner, repo)
		case "merge":
			return p.merge(ctx, env, opts, owner, repo)
		case "open", "close":
			return p.setState(ctx, env, opts, owner, repo, action)
		case "fetch":
			return p.fetch(ctx, env, opts, owner, repo)
		case "comment":
			return p.comment(ctx, env, opts, owner, repo)
		case "browser":
			if opts.Number > 0 {
				return openBrowser(ctx, env, webURL(env, owner, repo, "pull", strconv.Itoa(opts.Number)))
			}
			return openBrowser(ctx, env, webURL(env, owner, repo, "pulls"))
		case "submit":
			return p.submit(ctx, env, opts, repo)
		case "fwd":
			return p.forward(ctx, env, opts, owner, repo)
		default:
			return p.list(ctx, env, opts, owner, repo)
		}
	})
}

func (p PullRequest) list(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	prs, err := api.ListPullRequests(ctx, owner, repo, opts.String("state"))
	if err != nil {
		return command.APIWarning(err, "listing pull requests for %s/%s", owner, repo)
	}
	p.print(env, owner+"/"+repo, prs)
	return nil
}

func (p PullRequest) listAll(ctx context.Context, env *command.Env, opts *options.Options) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	repos, err := api.ListRepos(ctx, opts.User, "owner")
	if err != nil {
		return command.APIWarning(err, "listing repositories of %s", opts.User)
	}
	for _, r := range repos {
		prs, err := api.ListPullRequests(ctx, r.Owner, r.Name, opts.String("state"))
		if err != nil {
			return command.APIWarning(err, "listing pull requests for %s", r.FullName)
		}
		p.print(env, r.FullName, prs)
	}
	return nil
}

func (PullRequest) print(env *command.Env, fullName string, prs []github.PullRequest) {
	if len(prs) == 0 {
		return
	}
	env.Out.Header(fullName)
	rows := make([][]string, len(prs))
	for i, pr := range prs {
		rows[i] = []string{"#" + strconv.Itoa(pr.Number), ui.State(pr.State), pr.Title, pr.Author, pr.URL}
	}
	env.Out.Table(nil, rows)
}

func (PullRequest) info(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	n, err := requireNumber(opts, "info")
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	pr, err := api.GetPullRequest(ctx, owner, repo, n)
	if err != nil {
		return command.APIWarning(err, "pull request #%d", n)
	}
	env.Out.Putsf("#%d %s %s", pr.Number, ui.State(pr.State), ui.Accent.Render(pr.Title))
	env.Out.Kv("author", pr.Author)
	env.Out.Kv("branch", fmt.Sprintf("%s %s %s", pr.HeadRef, ui.IconArrow, pr.BaseRef))
	env.Out.Kv("changes", fmt.Sprintf("+%d -%d in %d files", pr.Additions, pr.Deletions, pr.ChangedCnt))
	env.Out.Kv("created", shortDate(pr.CreatedAt))
	env.Out.Kv("url", pr.URL)
	if pr.Body != "" {
		env.Out.Puts("")
		env.Out.Markdown(pr.Body)
	}
	return nil
}

func (PullRequest) merge(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	n, err := requireNumber(opts, "merge")
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	method := opts.String("method")
	if method == "" {
		method = "merge"
	}
	res, err := api.MergePullRequest(ctx, owner, repo, n, opts.String("title"), method)
	if err != nil {
		return command.APIWarning(err, "merging pull request #%d", n)
	}
	if !res.Merged {
		return command.Warnf("pull request #%d was not merged: %s", n, res.Message)
	}
	env.Out.Okf("merged pull request #%d on %s/%s (%s)", n, owner, repo, res.SHA)
	return nil
}

func (PullRequest) setState(ctx context.Context, env *command.Env, opts *options.Options, owner, repo, action string) error {
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
	if _, err := api.SetPullRequestState(ctx, owner, repo, n, state); err != nil {
		return command.APIWarning(err, "pull request #%d", n)
	}
	env.Out.Okf("%s pull request #%d on %s/%s", verb, n, owner, repo)
	return nil
}

func (PullRequest) comment(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
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
		return command.APIWarning(err, "pull request #%d", n)
	}
	env.Out.Okf("commented on pull request #%d", n)
	env.Out.Inf(c.URL)
	return nil
}

// fetch checks a pull request out into a local branch. Without a number on
// a terminal the user picks one from the open pull requests.
func (p PullRequest) fetch(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	n := opts.Number
	if n <= 0 {
		if !env.Interactive {
			return command.Fatalf("pull-request --fetch requires --number")
		}
		picked, err := p.pick(ctx, env, owner, repo)
		if err != nil || picked == 0 {
			return err
		}
		n = picked
	}

	branch := opts.String("branch")
	if branch == "" {
		branch = env.Config.GetString("pull_branch_name_prefix") + strconv.Itoa(n)
	}
	if err := fetchInto(ctx, env.Git, opts.Remote, n, branch); err != nil {
		return command.Warning(err)
	}
	env.Out.Okf("fetched pull request #%d into %s", n, branch)
	return nil
}

func (PullRequest) pick(ctx context.Context, env *command.Env, owner, repo string) (int, error) {
	api, err := env.Client(ctx)
	if err != nil {
		return 0, err
	}
	prs, err := api.ListPullRequests(ctx, owner, repo, "open")
	if err != nil {
		return 0, command.APIWarning(err, "listing pull requests for %s/%s", owner, repo)
	}
	if len(prs) == 0 {
		env.Out.Inf("no open pull requests")
		return 0, nil
	}
	n, err := pickPullRequest(prs)
	if err != nil {
		return 0, command.Fatal(err)
	}
	return n, nil
}

func fetchInto(ctx context.Context, g *git.Client, remote string, n int, branch string) error {
	refspec := fmt.Sprintf("pull/%d/head:%s", n, branch)
	if g.BranchExists(ctx, branch) {
		if err := g.Checkout(ctx, branch); err != nil {
			return fmt.Errorf("checking out %s: %w", branch, err)
		}
		refspec = fmt.Sprintf("pull/%d/head", n)
		if err := g.Fetch(ctx, remote, refspec); err != nil {
			return fmt.Errorf("fetching pull request #%d: %w", n, err)
		}
		return nil
	}
	if err := g.Fetch(ctx, remote, refspec); err != nil {
		return fmt.Errorf("fetching pull request #%d: %w", n, err)
	}
	if err := g.Checkout(ctx, branch); err != nil {
		return fmt.Errorf("checking out %s: %w", branch, err)
	}
	return nil
}

// submit pushes the current branch and opens a pull request against the
// --submit user's copy of the repository.
func (PullRequest) submit(ctx context.Context, env *command.Env, opts *options.Options, repo string) error {
	target := opts.String("submit")
	branch := opts.CurrentBranch
	if branch == "" {
		return command.Fatalf("pull-request --submit: cannot determine the current branch")
	}
	base := opts.String("branch")
	if base == "" {
		base = env.Config.GetString("default_branch")
	}
	if base == "" {
		base = env.Git.DefaultBase(ctx)
	}
	title := opts.String("title")
	if title == "" {
		title = git.BranchToTitle(branch)
	}
	body := opts.String("description")
	if body == "" {
		body = env.Git.PullRequestBody(ctx, base, branch)
	}

	if err := env.Git.Push(ctx, opts.Remote, branch); err != nil {
		return command.Warning(fmt.Errorf("pushing %s: %w", branch, err))
	}

	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	head := branch
	if opts.LoggedUser != "" && opts.LoggedUser != target {
		head = opts.LoggedUser + ":" + branch
	}
	pr, err := api.CreatePullRequest(ctx, target, repo, github.PullRequestRequest{
		Title: title,
		Body:  withSignature(env, body),
		Head:  head,
		Base:  base,
	})
	if err != nil {
		return command.APIWarning(err, "opening pull request on %s/%s", target, repo)
	}
	env.Out.Okf("opened pull request #%d on %s/%s", pr.Number, target, repo)
	env.Out.Inf(pr.URL)
	return nil
}

// forward re-opens a pull request from this repository against the --fwd
// user's copy, via a branch pushed to our own remote.
func (PullRequest) forward(ctx context.Context, env *command.Env, opts *options.Options, owner, repo string) error {
	target := opts.String("fwd")
	n, err := requireNumber(opts, "fwd")
	if err != nil {
		return err
	}
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	pr, err := api.GetPullRequest(ctx, owner, repo, n)
	if err != nil {
		return command.APIWarning(err, "pull request #%d", n)
	}

	branch := env.Config.GetString("pull_branch_name_prefix") + strconv.Itoa(n)
	if err := fetchInto(ctx, env.Git, opts.Remote, n, branch); err != nil {
		return command.Warning(err)
	}
	if err := env.Git.Push(ctx, opts.Remote, branch); err != nil {
		return command.Warning(fmt.Errorf("pushing %s: %w", branch, err))
	}

	head := branch
	if opts.LoggedUser != "" {
		head = opts.LoggedUser + ":" + branch
	}
	body := fmt.Sprintf("%s\n\nForwarded from %s/%s#%d by @%s.", pr.Body, owner, repo, n, pr.Author)
	fwd, err := api.CreatePullRequest(ctx, target, repo, github.PullRequestRequest{
		Title: pr.Title,
		Body:  withSignature(env, body),
		Head:  head,
		Base:  pr.BaseRef,
	})
	if err != nil {
		return command.APIWarning(err, "forwarding pull request #%d to %s", n, target)
	}
	env.Out.Okf("forwarded pull request #%d to %s/%s as #%d", n, target, repo, fwd.Number)
	env.Out.Inf(fwd.URL)
	return nil
}
