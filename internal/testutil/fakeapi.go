package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rnwolfe/gh/internal/github"
)

// FakeAPI is an in-memory implementation of github.API for testing.
type FakeAPI struct {
	mu sync.Mutex

	User       github.User
	issues     map[string][]github.Issue
	pulls      map[string][]github.PullRequest
	gists      []github.Gist
	repos      map[string][]github.Repo
	milestones map[string][]github.Milestone
	events     map[string][]github.Event
	comments   []string
	nextID     int

	// Calls records mutating calls, e.g. "SetIssueState zeno/gh#7 closed".
	Calls []string
	// Errs injects an error for a method name, e.g. "GetIssue".
	Errs map[string]error
}

// NewFakeAPI creates an empty fake logged in as login.
func NewFakeAPI(login string) *FakeAPI {
	return &FakeAPI{
		User:       github.User{Login: login, URL: "https://github.com/" + login},
		issues:     map[string][]github.Issue{},
		pulls:      map[string][]github.PullRequest{},
		repos:      map[string][]github.Repo{},
		milestones: map[string][]github.Milestone{},
		events:     map[string][]github.Event{},
		Errs:       map[string]error{},
		nextID:     100,
	}
}

func key(owner, repo string) string { return owner + "/" + repo }

func (f *FakeAPI) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeAPI) fail(method string) error {
	return f.Errs[method]
}

// AddIssue seeds an issue.
func (f *FakeAPI) AddIssue(owner, repo string, is github.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if is.State == "" {
		is.State = "open"
	}
	is.Repo = key(owner, repo)
	if is.URL == "" {
		is.URL = fmt.Sprintf("https://github.com/%s/issues/%d", is.Repo, is.Number)
	}
	f.issues[is.Repo] = append(f.issues[is.Repo], is)
}

// AddPull seeds a pull request.
func (f *FakeAPI) AddPull(owner, repo string, pr github.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pr.State == "" {
		pr.State = "open"
	}
	if pr.URL == "" {
		pr.URL = fmt.Sprintf("https://github.com/%s/pull/%d", key(owner, repo), pr.Number)
	}
	f.pulls[key(owner, repo)] = append(f.pulls[key(owner, repo)], pr)
}

// AddGist seeds a gist.
func (f *FakeAPI) AddGist(g github.Gist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.URL == "" {
		g.URL = "https://gist.github.com/" + g.ID
	}
	f.gists = append(f.gists, g)
}

// AddRepo seeds a repository owned by owner.
func (f *FakeAPI) AddRepo(owner string, r github.Repo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.Owner = owner
	r.FullName = key(owner, r.Name)
	if r.URL == "" {
		r.URL = "https://github.com/" + r.FullName
	}
	if r.CloneURL == "" {
		r.CloneURL = r.URL + ".git"
	}
	if r.DefaultBranch == "" {
		r.DefaultBranch = "main"
	}
	f.repos[owner] = append(f.repos[owner], r)
}

// AddMilestone seeds a milestone.
func (f *FakeAPI) AddMilestone(owner, repo string, m github.Milestone) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.Repo = key(owner, repo)
	f.milestones[m.Repo] = append(f.milestones[m.Repo], m)
}

// AddEvent seeds a repository event.
func (f *FakeAPI) AddEvent(owner, repo string, e github.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.Repo = key(owner, repo)
	f.events[e.Repo] = append(f.events[e.Repo], e)
}

// Comments returns the bodies of comments created so far.
func (f *FakeAPI) Comments() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.comments...)
}

// AuthenticatedUser implements github.API.
func (f *FakeAPI) AuthenticatedUser(context.Context) (github.User, error) {
	if err := f.fail("AuthenticatedUser"); err != nil {
		return github.User{}, err
	}
	return f.User, nil
}

// ListIssues implements github.API.
func (f *FakeAPI) ListIssues(_ context.Context, owner, repo string, flt github.IssueFilter) ([]github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListIssues"); err != nil {
		return nil, err
	}
	state := flt.State
	if state == "" {
		state = "open"
	}
	var out []github.Issue
	for _, is := range f.issues[key(owner, repo)] {
		if state != "all" && is.State != state {
			continue
		}
		if flt.Assignee != "" && is.Author != flt.Assignee {
			continue
		}
		if !hasAll(is.Labels, flt.Labels) {
			continue
		}
		out = append(out, is)
	}
	return out, nil
}

func hasAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetIssue implements github.API.
func (f *FakeAPI) GetIssue(_ context.Context, owner, repo string, number int) (github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetIssue"); err != nil {
		return github.Issue{}, err
	}
	for _, is := range f.issues[key(owner, repo)] {
		if is.Number == number {
			return is, nil
		}
	}
	return github.Issue{}, fmt.Errorf("issue #%d: %w", number, github.ErrNotFound)
}

// CreateIssue implements github.API.
func (f *FakeAPI) CreateIssue(_ context.Context, owner, repo string, req github.IssueRequest) (github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateIssue"); err != nil {
		return github.Issue{}, err
	}
	k := key(owner, repo)
	is := github.Issue{
		Number: len(f.issues[k]) + 1,
		Title:  req.Title,
		Body:   req.Body,
		State:  "open",
		Author: f.User.Login,
		Labels: req.Labels,
		Repo:   k,
	}
	is.URL = fmt.Sprintf("https://github.com/%s/issues/%d", k, is.Number)
	f.issues[k] = append(f.issues[k], is)
	f.record("CreateIssue %s %q", k, req.Title)
	return is, nil
}

// SetIssueState implements github.API.
func (f *FakeAPI) SetIssueState(_ context.Context, owner, repo string, number int, state string) (github.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(owner, repo)
	f.record("SetIssueState %s#%d %s", k, number, state)
	if err := f.fail("SetIssueState"); err != nil {
		return github.Issue{}, err
	}
	for i, is := range f.issues[k] {
		if is.Number == number {
			f.issues[k][i].State = state
			return f.issues[k][i], nil
		}
	}
	return github.Issue{}, fmt.Errorf("issue #%d: %w", number, github.ErrNotFound)
}

// CreateComment implements github.API.
func (f *FakeAPI) CreateComment(_ context.Context, owner, repo string, number int, body string) (github.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(owner, repo)
	f.record("CreateComment %s#%d", k, number)
	if err := f.fail("CreateComment"); err != nil {
		return github.Comment{}, err
	}
	f.nextID++
	f.comments = append(f.comments, body)
	return github.Comment{
		ID:   int64(f.nextID),
		Body: body,
		URL:  fmt.Sprintf("https://github.com/%s/issues/%d#issuecomment-%d", k, number, f.nextID),
	}, nil
}

// ListPullRequests implements github.API.
func (f *FakeAPI) ListPullRequests(_ context.Context, owner, repo, state string) ([]github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListPullRequests"); err != nil {
		return nil, err
	}
	if state == "" {
		state = "open"
	}
	var out []github.PullRequest
	for _, pr := range f.pulls[key(owner, repo)] {
		if state == "all" || pr.State == state || (state == "closed" && pr.State == "merged") {
			out = append(out, pr)
		}
	}
	return out, nil
}

// GetPullRequest implements github.API.
func (f *FakeAPI) GetPullRequest(_ context.Context, owner, repo string, number int) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetPullRequest"); err != nil {
		return github.PullRequest{}, err
	}
	for _, pr := range f.pulls[key(owner, repo)] {
		if pr.Number == number {
			return pr, nil
		}
	}
	return github.PullRequest{}, fmt.Errorf("pull request #%d: %w", number, github.ErrNotFound)
}

// CreatePullRequest implements github.API.
func (f *FakeAPI) CreatePullRequest(_ context.Context, owner, repo string, req github.PullRequestRequest) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(owner, repo)
	f.record("CreatePullRequest %s %s->%s %q", k, req.Head, req.Base, req.Title)
	if err := f.fail("CreatePullRequest"); err != nil {
		return github.PullRequest{}, err
	}
	pr := github.PullRequest{
		Number:  len(f.pulls[k]) + 1,
		Title:   req.Title,
		Body:    req.Body,
		State:   "open",
		Author:  f.User.Login,
		HeadRef: req.Head,
		BaseRef: req.Base,
	}
	if req.Issue != 0 {
		pr.Number = req.Issue
	}
	pr.URL = fmt.Sprintf("https://github.com/%s/pull/%d", k, pr.Number)
	f.pulls[k] = append(f.pulls[k], pr)
	return pr, nil
}

// SetPullRequestState implements github.API.
func (f *FakeAPI) SetPullRequestState(_ context.Context, owner, repo string, number int, state string) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(owner, repo)
	f.record("SetPullRequestState %s#%d %s", k, number, state)
	if err := f.fail("SetPullRequestState"); err != nil {
		return github.PullRequest{}, err
	}
	for i, pr := range f.pulls[k] {
		if pr.Number == number {
			f.pulls[k][i].State = state
			return f.pulls[k][i], nil
		}
	}
	return github.PullRequest{}, fmt.Errorf("pull request #%d: %w", number, github.ErrNotFound)
}

// MergePullRequest implements github.API.
func (f *FakeAPI) MergePullRequest(_ context.Context, owner, repo string, number int, message, method string) (github.MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(owner, repo)
	f.record("MergePullRequest %s#%d %s", k, number, method)
	if err := f.fail("MergePullRequest"); err != nil {
		return github.MergeResult{}, err
	}
	for i, pr := range f.pulls[k] {
		if pr.Number == number {
			f.pulls[k][i].State = "merged"
			f.pulls[k][i].Merged = true
			return github.MergeResult{SHA: "abc1234", Merged: true, Message: "Pull Request successfully merged"}, nil
		}
	}
	return github.MergeResult{}, fmt.Errorf("pull request #%d: %w", number, github.ErrNotFound)
}

// ListGists implements github.API.
func (f *FakeAPI) ListGists(_ context.Context, user string) ([]github.Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListGists"); err != nil {
		return nil, err
	}
	var out []github.Gist
	for _, g := range f.gists {
		if user == "" || g.Owner == user {
			out = append(out, g)
		}
	}
	return out, nil
}

// CreateGist implements github.API.
func (f *FakeAPI) CreateGist(_ context.Context, req github.GistRequest) (github.Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateGist"); err != nil {
		return github.Gist{}, err
	}
	f.nextID++
	files := make([]string, 0, len(req.Files))
	for name := range req.Files {
		files = append(files, name)
	}
	sort.Strings(files)
	g := github.Gist{
		ID:          fmt.Sprintf("g%d", f.nextID),
		Description: req.Description,
		Public:      req.Public,
		Files:       files,
		Owner:       f.User.Login,
	}
	g.URL = "https://gist.github.com/" + g.ID
	f.gists = append(f.gists, g)
	f.record("CreateGist %s %s", g.ID, strings.Join(files, ","))
	return g, nil
}

// ForkGist implements github.API.
func (f *FakeAPI) ForkGist(_ context.Context, id string) (github.Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ForkGist %s", id)
	if err := f.fail("ForkGist"); err != nil {
		return github.Gist{}, err
	}
	for _, g := range f.gists {
		if g.ID == id {
			f.nextID++
			fork := g
			fork.ID = fmt.Sprintf("g%d", f.nextID)
			fork.Owner = f.User.Login
			fork.URL = "https://gist.github.com/" + fork.ID
			f.gists = append(f.gists, fork)
			return fork, nil
		}
	}
	return github.Gist{}, fmt.Errorf("gist %s: %w", id, github.ErrNotFound)
}

// DeleteGist implements github.API.
func (f *FakeAPI) DeleteGist(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGist %s", id)
	if err := f.fail("DeleteGist"); err != nil {
		return err
	}
	for i, g := range f.gists {
		if g.ID == id {
			f.gists = append(f.gists[:i], f.gists[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("gist %s: %w", id, github.ErrNotFound)
}

// ListRepos implements github.API.
func (f *FakeAPI) ListRepos(_ context.Context, user, kind string) ([]github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListRepos"); err != nil {
		return nil, err
	}
	return filterRepos(f.repos[user], kind), nil
}

// ListOrgRepos implements github.API.
func (f *FakeAPI) ListOrgRepos(_ context.Context, org, kind string) ([]github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListOrgRepos"); err != nil {
		return nil, err
	}
	return filterRepos(f.repos[org], kind), nil
}

func filterRepos(repos []github.Repo, kind string) []github.Repo {
	var out []github.Repo
	for _, r := range repos {
		switch kind {
		case "public":
			if r.Private {
				continue
			}
		case "private":
			if !r.Private {
				continue
			}
		case "forks":
			if !r.Fork {
				continue
			}
		case "sources":
			if r.Fork {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// GetRepo implements github.API.
func (f *FakeAPI) GetRepo(_ context.Context, owner, repo string) (github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetRepo"); err != nil {
		return github.Repo{}, err
	}
	for _, r := range f.repos[owner] {
		if r.Name == repo {
			return r, nil
		}
	}
	return github.Repo{}, fmt.Errorf("repository %s: %w", key(owner, repo), github.ErrNotFound)
}

// CreateRepo implements github.API.
func (f *FakeAPI) CreateRepo(_ context.Context, org string, req github.RepoRequest) (github.Repo, error) {
	f.mu.Lock()
	owner := org
	if owner == "" {
		owner = f.User.Login
	}
	f.record("CreateRepo %s", key(owner, req.Name))
	err := f.fail("CreateRepo")
	f.mu.Unlock()
	if err != nil {
		return github.Repo{}, err
	}
	f.AddRepo(owner, github.Repo{Name: req.Name, Description: req.Description, Private: req.Private})
	return f.GetRepo(context.Background(), owner, req.Name)
}

// ForkRepo implements github.API.
func (f *FakeAPI) ForkRepo(_ context.Context, owner, repo, org string) (github.Repo, error) {
	f.mu.Lock()
	target := org
	if target == "" {
		target = f.User.Login
	}
	f.record("ForkRepo %s -> %s", key(owner, repo), target)
	err := f.fail("ForkRepo")
	f.mu.Unlock()
	if err != nil {
		return github.Repo{}, err
	}
	f.AddRepo(target, github.Repo{Name: repo, Fork: true})
	return f.GetRepo(context.Background(), target, repo)
}

// DeleteRepo implements github.API.
func (f *FakeAPI) DeleteRepo(_ context.Context, owner, repo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRepo %s", key(owner, repo))
	if err := f.fail("DeleteRepo"); err != nil {
		return err
	}
	for i, r := range f.repos[owner] {
		if r.Name == repo {
			f.repos[owner] = append(f.repos[owner][:i], f.repos[owner][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("repository %s: %w", key(owner, repo), github.ErrNotFound)
}

// ListMilestones implements github.API.
func (f *FakeAPI) ListMilestones(_ context.Context, owner, repo string) ([]github.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListMilestones"); err != nil {
		return nil, err
	}
	return f.milestones[key(owner, repo)], nil
}

// ListRepoEvents implements github.API.
func (f *FakeAPI) ListRepoEvents(_ context.Context, owner, repo string) ([]github.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListRepoEvents"); err != nil {
		return nil, err
	}
	return f.events[key(owner, repo)], nil
}

var _ github.API = (*FakeAPI)(nil)
