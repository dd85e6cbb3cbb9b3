// Package git provides the repository context gh needs from the local
// checkout. It shells out to the git binary through a runner.Runner; there
// is no libgit2 or go-git dependency.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rnwolfe/gh/internal/runner"
)

// ErrNotInRepo is returned when the working directory is not inside a
// git checkout.
var ErrNotInRepo = errors.New("not a git repository")

// Client runs git subcommands in Dir (the process working directory when empty).
type Client struct {
	r   runner.Runner
	Dir string
}

// New returns a Client backed by r.
func New(r runner.Runner) *Client {
	return &Client{r: r}
}

// run executes a git command and returns trimmed stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	res, err := c.r.Run(ctx, runner.Cmd{Name: "git", Args: args, Dir: c.Dir})
	if err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) && strings.Contains(exitErr.Stderr, "not a git repository") {
			return "", ErrNotInRepo
		}
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CurrentBranch returns the name of the checked out branch.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	return c.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// RemoteURL returns the fetch URL configured for remote.
func (c *Client) RemoteURL(ctx context.Context, remote string) (string, error) {
	return c.run(ctx, "config", "--get", "remote."+remote+".url")
}

// Fetch fetches refspec from remote.
func (c *Client) Fetch(ctx context.Context, remote, refspec string) error {
	_, err := c.run(ctx, "fetch", remote, refspec)
	return err
}

// Checkout switches to an existing branch.
func (c *Client) Checkout(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "checkout", branch)
	return err
}

// BranchExists reports whether a local branch exists.
func (c *Client) BranchExists(ctx context.Context, branch string) bool {
	_, err := c.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// Push pushes branch to remote and sets upstream.
func (c *Client) Push(ctx context.Context, remote, branch string) error {
	_, err := c.run(ctx, "push", "-u", remote, branch)
	return err
}

// Clone clones url into dir, streaming git's progress to the terminal.
func (c *Client) Clone(ctx context.Context, url, dir string) error {
	args := []string{"clone", url}
	if dir != "" {
		args = append(args, dir)
	}
	_, err := c.r.Run(ctx, runner.Cmd{Name: "git", Args: args, Dir: c.Dir, Interactive: true})
	return err
}

// DefaultBase detects the most likely base branch (main, master, or develop).
func (c *Client) DefaultBase(ctx context.Context) string {
	for _, candidate := range []string{"main", "master", "develop"} {
		if c.BranchExists(ctx, candidate) {
			return candidate
		}
	}
	return "main"
}

// CommitsBetween returns the commit subjects between two refs (from..to).
func (c *Client) CommitsBetween(ctx context.Context, from, to string) ([]string, error) {
	out, err := c.run(ctx, "log", from+".."+to, "--pretty=format:%s", "--no-merges")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var commits []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			commits = append(commits, l)
		}
	}
	return commits, nil
}

// Remote identifies the repository a git remote points at.
type Remote struct {
	Host  string
	Owner string
	Repo  string
}

// FullName returns "owner/repo".
func (r Remote) FullName() string {
	return r.Owner + "/" + r.Repo
}

// ParseRemoteURL extracts host, owner and repository from a remote URL.
// Supported forms:
//
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
//	https://github.com/owner/repo(.git)
//	git://github.com/owner/repo.git
func ParseRemoteURL(url string) (Remote, error) {
	u := strings.TrimSpace(url)
	if u == "" {
		return Remote{}, fmt.Errorf("empty remote url")
	}

	var host, path string
	switch {
	case strings.Contains(u, "://"):
		rest := u[strings.Index(u, "://")+3:]
		if at := strings.Index(rest, "@"); at >= 0 && at < strings.Index(rest+"/", "/") {
			rest = rest[at+1:]
		}
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return Remote{}, fmt.Errorf("remote url %q has no path", url)
		}
		host, path = rest[:slash], rest[slash+1:]
	case strings.Contains(u, ":"):
		// scp-like syntax: [user@]host:owner/repo
		colon := strings.Index(u, ":")
		host, path = u[:colon], u[colon+1:]
		if at := strings.Index(host, "@"); at >= 0 {
			host = host[at+1:]
		}
	default:
		return Remote{}, fmt.Errorf("unrecognized remote url %q", url)
	}

	if p := strings.Index(host, ":"); p >= 0 {
		host = host[:p] // strip port
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return Remote{}, fmt.Errorf("remote url %q does not name owner/repo", url)
	}

	return Remote{
		Host:  host,
		Owner: parts[len(parts)-2],
		Repo:  parts[len(parts)-1],
	}, nil
}

// Context is the repository information gh derives before running a command.
type Context struct {
	Remote        Remote
	CurrentBranch string
}

// Derive reads remote ownership and the current branch. A partially
// populated Context is returned alongside the first error encountered so
// callers can keep whatever was resolvable.
func (c *Client) Derive(ctx context.Context, remote string) (Context, error) {
	var out Context
	var firstErr error

	url, err := c.RemoteURL(ctx, remote)
	if err != nil {
		firstErr = fmt.Errorf("reading remote %q: %w", remote, err)
	} else if r, perr := ParseRemoteURL(url); perr != nil {
		firstErr = perr
	} else {
		out.Remote = r
	}

	branch, err := c.CurrentBranch(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("reading current branch: %w", err)
		}
	} else {
		out.CurrentBranch = branch
	}

	return out, firstErr
}

// BranchToTitle converts a branch name to a human-readable PR title.
// e.g. "feat/add-user-auth" → "feat: add user auth"
func BranchToTitle(branch string) string {
	prefixes := []string{"feat/", "fix/", "chore/", "docs/", "refactor/", "test/"}
	for _, pfx := range prefixes {
		if strings.HasPrefix(branch, pfx) {
			typ := strings.TrimSuffix(pfx, "/")
			rest := strings.TrimPrefix(branch, pfx)
			rest = strings.ReplaceAll(rest, "-", " ")
			rest = strings.ReplaceAll(rest, "_", " ")
			return typ + ": " + rest
		}
	}
	title := strings.ReplaceAll(branch, "-", " ")
	return strings.ReplaceAll(title, "_", " ")
}

// PullRequestBody builds a markdown body from the commits on branch since base.
func (c *Client) PullRequestBody(ctx context.Context, base, branch string) string {
	commits, err := c.CommitsBetween(ctx, base, branch)
	if err != nil {
		commits = nil
	}

	var body strings.Builder
	body.WriteString("## Summary\n\n")
	if len(commits) > 0 {
		for _, cm := range commits {
			body.WriteString("- " + cm + "\n")
		}
	} else {
		body.WriteString("_No commits yet._\n")
	}
	return body.String()
}
