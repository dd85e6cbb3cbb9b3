// Package github is gh's remote API layer. Commands talk to the API
// interface and never import the go-github SDK directly.
package github

import (
	"context"
	"errors"
	"time"
)

// ErrNotLoggedIn is returned when no token is configured.
var ErrNotLoggedIn = errors.New("not logged in; run gh user --login")

// ErrNotFound is returned when the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// API is the set of remote operations gh performs.
type API interface {
	AuthenticatedUser(ctx context.Context) (User, error)

	ListIssues(ctx context.Context, owner, repo string, f IssueFilter) ([]Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (Issue, error)
	CreateIssue(ctx context.Context, owner, repo string, req IssueRequest) (Issue, error)
	SetIssueState(ctx context.Context, owner, repo string, number int, state string) (Issue, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (Comment, error)

	ListPullRequests(ctx context.Context, owner, repo string, state string) ([]PullRequest, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error)
	CreatePullRequest(ctx context.Context, owner, repo string, req PullRequestRequest) (PullRequest, error)
	SetPullRequestState(ctx context.Context, owner, repo string, number int, state string) (PullRequest, error)
	MergePullRequest(ctx context.Context, owner, repo string, number int, message, method string) (MergeResult, error)

	ListGists(ctx context.Context, user string) ([]Gist, error)
	CreateGist(ctx context.Context, req GistRequest) (Gist, error)
	ForkGist(ctx context.Context, id string) (Gist, error)
	DeleteGist(ctx context.Context, id string) error

	ListRepos(ctx context.Context, user, kind string) ([]Repo, error)
	ListOrgRepos(ctx context.Context, org, kind string) ([]Repo, error)
	GetRepo(ctx context.Context, owner, repo string) (Repo, error)
	CreateRepo(ctx context.Context, org string, req RepoRequest) (Repo, error)
	ForkRepo(ctx context.Context, owner, repo, org string) (Repo, error)
	DeleteRepo(ctx context.Context, owner, repo string) error

	ListMilestones(ctx context.Context, owner, repo string) ([]Milestone, error)
	ListRepoEvents(ctx context.Context, owner, repo string) ([]Event, error)
}

// User is a GitHub account.
type User struct {
	Login string
	Name  string
	URL   string
}

// Issue is an issue or pull request viewed through the issues API.
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	Author    string
	Labels    []string
	Comments  int
	URL       string
	Repo      string
	CreatedAt time.Time
	IsPull    bool
}

// IssueFilter narrows an issue listing.
type IssueFilter struct {
	State    string
	Assignee string
	Labels   []string
	// Milestone is a milestone number, "*" or "none".
	Milestone string
}

// IssueRequest creates an issue.
type IssueRequest struct {
	Title     string
	Body      string
	Labels    []string
	Assignee  string
	Milestone int
}

// Comment is an issue or pull request comment.
type Comment struct {
	ID   int64
	Body string
	URL  string
}

// PullRequest is a pull request.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	State      string
	Merged     bool
	Author     string
	HeadRef    string
	HeadSHA    string
	HeadRepo   string
	HeadClone  string
	BaseRef    string
	URL        string
	CreatedAt  time.Time
	Mergeable  bool
	Additions  int
	Deletions  int
	ChangedCnt int
}

// PullRequestRequest opens a pull request.
type PullRequestRequest struct {
	Title string
	Body  string
	// Head is "branch" or "owner:branch".
	Head  string
	Base  string
	Issue int
}

// MergeResult is the outcome of a merge.
type MergeResult struct {
	SHA     string
	Merged  bool
	Message string
}

// Gist is a gist.
type Gist struct {
	ID          string
	Description string
	Public      bool
	Files       []string
	URL         string
	Owner       string
}

// GistRequest creates a gist.
type GistRequest struct {
	Description string
	Public      bool
	// Files maps file name to content.
	Files map[string]string
}

// Repo is a repository.
type Repo struct {
	Name          string
	FullName      string
	Owner         string
	Description   string
	Private       bool
	Fork          bool
	URL           string
	CloneURL      string
	SSHURL        string
	DefaultBranch string
	Stars         int
	Forks         int
	OpenIssues    int
}

// RepoRequest creates a repository.
type RepoRequest struct {
	Name        string
	Description string
	Private     bool
	Init        bool
}

// Milestone is a repository milestone.
type Milestone struct {
	Number     int
	Title      string
	State      string
	OpenIssues int
	DueOn      time.Time
	URL        string
	Repo       string
}

// Event is a repository activity event.
type Event struct {
	ID        string
	Type      string
	Actor     string
	Repo      string
	CreatedAt time.Time
	// Summary is a one-line description derived from the event payload.
	Summary string
}
