package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com/"
	perPage       = 100
)

// Options configures a Client.
type Options struct {
	Token   string
	BaseURL string
	// MaxPages caps pagination for list calls. Zero means one page.
	MaxPages int
	// Transport is the base round tripper under the auth layer, e.g. the
	// ETag cache. nil uses http.DefaultTransport.
	Transport http.RoundTripper
	UserAgent string
}

// Client implements API on top of go-github.
type Client struct {
	gh       *gh.Client
	token    string
	maxPages int
}

var _ API = (*Client)(nil)

// NewClient builds an authenticated client. An empty token yields an
// anonymous client that can still read public data.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient := &http.Client{Transport: base}
	if opts.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}

	client := gh.NewClient(httpClient)
	if opts.BaseURL != "" && opts.BaseURL != DefaultAPIURL {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid api_url %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}

	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	return &Client{gh: client, token: opts.Token, maxPages: maxPages}, nil
}

// collect follows pagination up to maxPages.
func collect[T any](maxPages int, fetch func(page int) ([]T, *gh.Response, error)) ([]T, error) {
	var all []T
	page := 1
	for i := 0; i < maxPages; i++ {
		items, resp, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return all, nil
}

func wrap(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if isNotFound(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (c *Client) AuthenticatedUser(ctx context.Context) (User, error) {
	if c.token == "" {
		return User{}, ErrNotLoggedIn
	}
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return User{}, wrap(err, "fetching authenticated user")
	}
	return toUser(u), nil
}

func (c *Client) ListIssues(ctx context.Context, owner, repo string, f IssueFilter) ([]Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     f.State,
		Assignee:  f.Assignee,
		Labels:    f.Labels,
		Milestone: f.Milestone,
	}
	issues, err := collect(c.maxPages, func(page int) ([]*gh.Issue, *gh.Response, error) {
		opts.ListOptions = gh.ListOptions{Page: page, PerPage: perPage}
		return c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	})
	if err != nil {
		return nil, wrap(err, "listing issues for %s/%s", owner, repo)
	}
	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		if i.IsPullRequest() {
			continue
		}
		out = append(out, toIssue(i, owner+"/"+repo))
	}
	return out, nil
}

func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (Issue, error) {
	i, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return Issue{}, wrap(err, "issue #%d", number)
	}
	return toIssue(i, owner+"/"+repo), nil
}

func (c *Client) CreateIssue(ctx context.Context, owner, repo string, req IssueRequest) (Issue, error) {
	r := &gh.IssueRequest{Title: gh.String(req.Title)}
	if req.Body != "" {
		r.Body = gh.String(req.Body)
	}
	if len(req.Labels) > 0 {
		labels := req.Labels
		r.Labels = &labels
	}
	if req.Assignee != "" {
		r.Assignee = gh.String(req.Assignee)
	}
	if req.Milestone != 0 {
		r.Milestone = gh.Int(req.Milestone)
	}
	i, _, err := c.gh.Issues.Create(ctx, owner, repo, r)
	if err != nil {
		return Issue{}, wrap(err, "creating issue in %s/%s", owner, repo)
	}
	return toIssue(i, owner+"/"+repo), nil
}

func (c *Client) SetIssueState(ctx context.Context, owner, repo string, number int, state string) (Issue, error) {
	i, _, err := c.gh.Issues.Edit(ctx, owner, repo, number, &gh.IssueRequest{State: gh.String(state)})
	if err != nil {
		return Issue{}, wrap(err, "issue #%d", number)
	}
	return toIssue(i, owner+"/"+repo), nil
}

func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (Comment, error) {
	cm, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return Comment{}, wrap(err, "commenting on #%d", number)
	}
	return Comment{ID: cm.GetID(), Body: cm.GetBody(), URL: cm.GetHTMLURL()}, nil
}

func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, state string) ([]PullRequest, error) {
	opts := &gh.PullRequestListOptions{State: state}
	prs, err := collect(c.maxPages, func(page int) ([]*gh.PullRequest, *gh.Response, error) {
		opts.ListOptions = gh.ListOptions{Page: page, PerPage: perPage}
		return c.gh.PullRequests.List(ctx, owner, repo, opts)
	})
	if err != nil {
		return nil, wrap(err, "listing pull requests for %s/%s", owner, repo)
	}
	out := make([]PullRequest, 0, len(prs))
	for _, p := range prs {
		out = append(out, toPullRequest(p))
	}
	return out, nil
}

func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error) {
	p, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return PullRequest{}, wrap(err, "pull request #%d", number)
	}
	return toPullRequest(p), nil
}

func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, req PullRequestRequest) (PullRequest, error) {
	np := &gh.NewPullRequest{
		Head: gh.String(req.Head),
		Base: gh.String(req.Base),
	}
	if req.Issue != 0 {
		np.Issue = gh.Int(req.Issue)
	} else {
		np.Title = gh.String(req.Title)
		np.Body = gh.String(req.Body)
	}
	p, _, err := c.gh.PullRequests.Create(ctx, owner, repo, np)
	if err != nil {
		return PullRequest{}, wrap(err, "opening pull request on %s/%s", owner, repo)
	}
	return toPullRequest(p), nil
}

func (c *Client) SetPullRequestState(ctx context.Context, owner, repo string, number int, state string) (PullRequest, error) {
	p, _, err := c.gh.PullRequests.Edit(ctx, owner, repo, number, &gh.PullRequest{State: gh.String(state)})
	if err != nil {
		return PullRequest{}, wrap(err, "pull request #%d", number)
	}
	return toPullRequest(p), nil
}

func (c *Client) MergePullRequest(ctx context.Context, owner, repo string, number int, message, method string) (MergeResult, error) {
	res, _, err := c.gh.PullRequests.Merge(ctx, owner, repo, number, message, &gh.PullRequestOptions{MergeMethod: method})
	if err != nil {
		return MergeResult{}, wrap(err, "merging pull request #%d", number)
	}
	return MergeResult{SHA: res.GetSHA(), Merged: res.GetMerged(), Message: res.GetMessage()}, nil
}

func (c *Client) ListGists(ctx context.Context, user string) ([]Gist, error) {
	opts := &gh.GistListOptions{}
	gists, err := collect(c.maxPages, func(page int) ([]*gh.Gist, *gh.Response, error) {
		opts.ListOptions = gh.ListOptions{Page: page, PerPage: perPage}
		return c.gh.Gists.List(ctx, user, opts)
	})
	if err != nil {
		return nil, wrap(err, "listing gists for %s", user)
	}
	out := make([]Gist, 0, len(gists))
	for _, g := range gists {
		out = append(out, toGist(g))
	}
	return out, nil
}

func (c *Client) CreateGist(ctx context.Context, req GistRequest) (Gist, error) {
	files := make(map[gh.GistFilename]gh.GistFile, len(req.Files))
	for name, content := range req.Files {
		files[gh.GistFilename(name)] = gh.GistFile{Filename: gh.String(name), Content: gh.String(content)}
	}
	g, _, err := c.gh.Gists.Create(ctx, &gh.Gist{
		Description: gh.String(req.Description),
		Public:      gh.Bool(req.Public),
		Files:       files,
	})
	if err != nil {
		return Gist{}, wrap(err, "creating gist")
	}
	return toGist(g), nil
}

func (c *Client) ForkGist(ctx context.Context, id string) (Gist, error) {
	g, _, err := c.gh.Gists.Fork(ctx, id)
	if err != nil {
		return Gist{}, wrap(err, "gist %s", id)
	}
	return toGist(g), nil
}

func (c *Client) DeleteGist(ctx context.Context, id string) error {
	if _, err := c.gh.Gists.Delete(ctx, id); err != nil {
		return wrap(err, "gist %s", id)
	}
	return nil
}

func (c *Client) ListRepos(ctx context.Context, user, kind string) ([]Repo, error) {
	opts := &gh.RepositoryListByUserOptions{Type: kind, Sort: "pushed"}
	repos, err := collect(c.maxPages, func(page int) ([]*gh.Repository, *gh.Response, error) {
		opts.ListOptions = gh.ListOptions{Page: page, PerPage: perPage}
		return c.gh.Repositories.ListByUser(ctx, user, opts)
	})
	if err != nil {
		return nil, wrap(err, "listing repositories for %s", user)
	}
	return toRepos(repos), nil
}

func (c *Client) ListOrgRepos(ctx context.Context, org, kind string) ([]Repo, error) {
	opts := &gh.RepositoryListByOrgOptions{Type: kind, Sort: "pushed"}
	repos, err := collect(c.maxPages, func(page int) ([]*gh.Repository, *gh.Response, error) {
		opts.ListOptions = gh.ListOptions{Page: page, PerPage: perPage}
		return c.gh.Repositories.ListByOrg(ctx, org, opts)
	})
	if err != nil {
		return nil, wrap(err, "listing repositories for %s", org)
	}
	return toRepos(repos), nil
}

func (c *Client) GetRepo(ctx context.Context, owner, repo string) (Repo, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return Repo{}, wrap(err, "repository %s/%s", owner, repo)
	}
	return toRepo(r), nil
}

func (c *Client) CreateRepo(ctx context.Context, org string, req RepoRequest) (Repo, error) {
	r, _, err := c.gh.Repositories.Create(ctx, org, &gh.Repository{
		Name:        gh.String(req.Name),
		Description: gh.String(req.Description),
		Private:     gh.Bool(req.Private),
		AutoInit:    gh.Bool(req.Init),
	})
	if err != nil {
		return Repo{}, wrap(err, "creating repository %s", req.Name)
	}
	return toRepo(r), nil
}

func (c *Client) ForkRepo(ctx context.Context, owner, repo, org string) (Repo, error) {
	r, _, err := c.gh.Repositories.CreateFork(ctx, owner, repo, &gh.RepositoryCreateForkOptions{Organization: org})
	if err != nil {
		var accepted *gh.AcceptedError
		if !errors.As(err, &accepted) {
			return Repo{}, wrap(err, "forking %s/%s", owner, repo)
		}
	}
	return toRepo(r), nil
}

func (c *Client) DeleteRepo(ctx context.Context, owner, repo string) error {
	if _, err := c.gh.Repositories.Delete(ctx, owner, repo); err != nil {
		return wrap(err, "repository %s/%s", owner, repo)
	}
	return nil
}

func (c *Client) ListMilestones(ctx context.Context, owner, repo string) ([]Milestone, error) {
	opts := &gh.MilestoneListOptions{State: "open", Sort: "due_on"}
	ms, err := collect(c.maxPages, func(page int) ([]*gh.Milestone, *gh.Response, error) {
		opts.ListOptions = gh.ListOptions{Page: page, PerPage: perPage}
		return c.gh.Issues.ListMilestones(ctx, owner, repo, opts)
	})
	if err != nil {
		return nil, wrap(err, "listing milestones for %s/%s", owner, repo)
	}
	out := make([]Milestone, 0, len(ms))
	for _, m := range ms {
		out = append(out, Milestone{
			Number:     m.GetNumber(),
			Title:      m.GetTitle(),
			State:      m.GetState(),
			OpenIssues: m.GetOpenIssues(),
			DueOn:      m.GetDueOn().Time,
			URL:        m.GetHTMLURL(),
			Repo:       owner + "/" + repo,
		})
	}
	return out, nil
}

func (c *Client) ListRepoEvents(ctx context.Context, owner, repo string) ([]Event, error) {
	events, _, err := c.gh.Activity.ListRepositoryEvents(ctx, owner, repo, &gh.ListOptions{PerPage: 30})
	if err != nil {
		return nil, wrap(err, "listing activity for %s/%s", owner, repo)
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, toEvent(e))
	}
	return out, nil
}

func toUser(u *gh.User) User {
	return User{Login: u.GetLogin(), Name: u.GetName(), URL: u.GetHTMLURL()}
}

func toIssue(i *gh.Issue, repo string) Issue {
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.GetName())
	}
	return Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     i.GetState(),
		Author:    i.GetUser().GetLogin(),
		Labels:    labels,
		Comments:  i.GetComments(),
		URL:       i.GetHTMLURL(),
		Repo:      repo,
		CreatedAt: i.GetCreatedAt().Time,
		IsPull:    i.IsPullRequest(),
	}
}

func toPullRequest(p *gh.PullRequest) PullRequest {
	state := p.GetState()
	if p.GetMerged() {
		state = "merged"
	}
	return PullRequest{
		Number:     p.GetNumber(),
		Title:      p.GetTitle(),
		Body:       p.GetBody(),
		State:      state,
		Merged:     p.GetMerged(),
		Author:     p.GetUser().GetLogin(),
		HeadRef:    p.GetHead().GetRef(),
		HeadSHA:    p.GetHead().GetSHA(),
		HeadRepo:   p.GetHead().GetRepo().GetFullName(),
		HeadClone:  p.GetHead().GetRepo().GetCloneURL(),
		BaseRef:    p.GetBase().GetRef(),
		URL:        p.GetHTMLURL(),
		CreatedAt:  p.GetCreatedAt().Time,
		Mergeable:  p.GetMergeable(),
		Additions:  p.GetAdditions(),
		Deletions:  p.GetDeletions(),
		ChangedCnt: p.GetChangedFiles(),
	}
}

func toGist(g *gh.Gist) Gist {
	files := make([]string, 0, len(g.Files))
	for name := range g.Files {
		files = append(files, string(name))
	}
	sort.Strings(files)
	return Gist{
		ID:          g.GetID(),
		Description: g.GetDescription(),
		Public:      g.GetPublic(),
		Files:       files,
		URL:         g.GetHTMLURL(),
		Owner:       g.GetOwner().GetLogin(),
	}
}

func toRepo(r *gh.Repository) Repo {
	return Repo{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		Description:   r.GetDescription(),
		Private:       r.GetPrivate(),
		Fork:          r.GetFork(),
		URL:           r.GetHTMLURL(),
		CloneURL:      r.GetCloneURL(),
		SSHURL:        r.GetSSHURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
	}
}

func toRepos(rs []*gh.Repository) []Repo {
	out := make([]Repo, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRepo(r))
	}
	return out
}

func toEvent(e *gh.Event) Event {
	ev := Event{
		ID:        e.GetID(),
		Type:      e.GetType(),
		Actor:     e.GetActor().GetLogin(),
		Repo:      e.GetRepo().GetName(),
		CreatedAt: e.GetCreatedAt().Time,
	}
	ev.Summary = summarize(e)
	return ev
}

// summarize renders an event as "opened issue #12 Fix login".
func summarize(e *gh.Event) string {
	payload, err := e.ParsePayload()
	if err != nil {
		return strings.TrimSuffix(e.GetType(), "Event")
	}
	switch p := payload.(type) {
	case *gh.IssuesEvent:
		return fmt.Sprintf("%s issue #%d %s", p.GetAction(), p.GetIssue().GetNumber(), p.GetIssue().GetTitle())
	case *gh.IssueCommentEvent:
		return fmt.Sprintf("commented on #%d %s", p.GetIssue().GetNumber(), p.GetIssue().GetTitle())
	case *gh.PullRequestEvent:
		return fmt.Sprintf("%s pull request #%d %s", p.GetAction(), p.GetNumber(), p.GetPullRequest().GetTitle())
	case *gh.PushEvent:
		return fmt.Sprintf("pushed %d commit(s) to %s", p.GetSize(), strings.TrimPrefix(p.GetRef(), "refs/heads/"))
	case *gh.CreateEvent:
		return fmt.Sprintf("created %s %s", p.GetRefType(), p.GetRef())
	case *gh.DeleteEvent:
		return fmt.Sprintf("deleted %s %s", p.GetRefType(), p.GetRef())
	case *gh.ForkEvent:
		return "forked to " + p.GetForkee().GetFullName()
	case *gh.WatchEvent:
		return "starred the repository"
	default:
		return strings.TrimSuffix(e.GetType(), "Event")
	}
}
