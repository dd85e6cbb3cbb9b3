package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rnwolfe/gh/internal/store"
)

func newTestClient(t *testing.T, token string, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), Options{Token: token, BaseURL: srv.URL, MaxPages: 3})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestAuthenticatedUser(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/user" {
			t.Errorf("path = %s, want /user", r.URL.Path)
		}
		fmt.Fprint(w, `{"login":"zeno","name":"Zeno"}`)
	}))

	u, err := c.AuthenticatedUser(context.Background())
	if err != nil {
		t.Fatalf("AuthenticatedUser: %v", err)
	}
	if u.Login != "zeno" {
		t.Errorf("Login = %q", u.Login)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestAuthenticatedUserWithoutToken(t *testing.T) {
	c := newTestClient(t, "", http.NotFoundHandler())
	if _, err := c.AuthenticatedUser(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestListIssuesPaginatesAndSkipsPulls(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/node-gh/gh/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "open" {
			t.Errorf("state = %q", r.URL.Query().Get("state"))
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/node-gh/gh/issues?page=2>; rel="next"`, srvURL))
			fmt.Fprint(w, `[{"number":1,"title":"one","state":"open","user":{"login":"a"},"labels":[{"name":"bug"}]},
				{"number":2,"title":"a pull","pull_request":{"url":"x"}}]`)
		case "2":
			fmt.Fprint(w, `[{"number":3,"title":"three","state":"open"}]`)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	c, err := NewClient(context.Background(), Options{BaseURL: srv.URL, MaxPages: 5})
	if err != nil {
		t.Fatal(err)
	}
	issues, err := c.ListIssues(context.Background(), "node-gh", "gh", IssueFilter{State: "open"})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 || issues[0].Number != 1 || issues[1].Number != 3 {
		t.Fatalf("issues = %+v", issues)
	}
	if issues[0].Author != "a" || len(issues[0].Labels) != 1 || issues[0].Labels[0] != "bug" {
		t.Errorf("issue[0] = %+v", issues[0])
	}
	if issues[0].Repo != "node-gh/gh" {
		t.Errorf("Repo = %q", issues[0].Repo)
	}
}

func TestMaxPagesCapsPagination(t *testing.T) {
	calls := 0
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=%d>; rel="next"`, srvURL, r.URL.Path, calls+1))
		fmt.Fprint(w, `[{"id":"g"}]`)
	}))
	defer srv.Close()
	srvURL = srv.URL

	c, _ := NewClient(context.Background(), Options{BaseURL: srv.URL, MaxPages: 2})
	gists, err := c.ListGists(context.Background(), "zeno")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 || len(gists) != 2 {
		t.Errorf("calls = %d, gists = %d, want 2 and 2", calls, len(gists))
	}
}

func TestSetIssueState(t *testing.T) {
	var body string
	c := newTestClient(t, "t", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/repos/o/r/issues/7" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		fmt.Fprint(w, `{"number":7,"state":"closed","title":"t"}`)
	}))

	i, err := c.SetIssueState(context.Background(), "o", "r", 7, "closed")
	if err != nil {
		t.Fatal(err)
	}
	if i.State != "closed" {
		t.Errorf("State = %q", i.State)
	}
	if body != `{"state":"closed"}`+"\n" {
		t.Errorf("body = %q", body)
	}
}

func TestNotFoundIsSentinel(t *testing.T) {
	c := newTestClient(t, "t", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))
	_, err := c.GetIssue(context.Background(), "o", "r", 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := err.Error(); got != "issue #99: not found" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	c := newTestClient(t, "t", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Validation Failed","errors":[{"resource":"PullRequest","code":"custom","message":"No commits between main and main"}]}`)
	}))
	_, err := c.CreatePullRequest(context.Background(), "o", "r", PullRequestRequest{Title: "x", Head: "main", Base: "main"})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Validation Failed: No commits between main and main"
	if got := ErrorMessage(err); got != want {
		t.Errorf("ErrorMessage = %q, want %q", got, want)
	}
	if ErrorMessage(nil) != "" {
		t.Error("ErrorMessage(nil) should be empty")
	}
	if ErrorMessage(errors.New("plain")) != "plain" {
		t.Error("plain errors pass through")
	}
}

func TestPullRequestMergedState(t *testing.T) {
	c := newTestClient(t, "t", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":5,"state":"closed","merged":true,"head":{"ref":"feature","sha":"abc","repo":{"full_name":"z/gh","clone_url":"https://github.com/z/gh.git"}},"base":{"ref":"main"}}`)
	}))
	pr, err := c.GetPullRequest(context.Background(), "o", "r", 5)
	if err != nil {
		t.Fatal(err)
	}
	if pr.State != "merged" || pr.HeadRef != "feature" || pr.HeadRepo != "z/gh" || pr.BaseRef != "main" {
		t.Errorf("pr = %+v", pr)
	}
}

func TestCacheTransport(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "http.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var mu sync.Mutex
	var conditional int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"full_name":"o/r","stargazers_count":42}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Options{
		Token:     "t",
		BaseURL:   srv.URL,
		Transport: &CacheTransport{Store: db},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		repo, err := c.GetRepo(context.Background(), "o", "r")
		if err != nil {
			t.Fatalf("GetRepo #%d: %v", i, err)
		}
		if repo.FullName != "o/r" || repo.Stars != 42 {
			t.Errorf("GetRepo #%d = %+v", i, repo)
		}
	}
	if conditional != 1 {
		t.Errorf("conditional requests = %d, want 1", conditional)
	}
}

func TestCacheKeySeparatesCredentials(t *testing.T) {
	a, _ := http.NewRequest(http.MethodGet, "https://api.github.com/user", nil)
	b := a.Clone(context.Background())
	a.Header.Set("Authorization", "Bearer one")
	b.Header.Set("Authorization", "Bearer two")
	if cacheKey(a) == cacheKey(b) {
		t.Error("different credentials must not share a cache key")
	}
}
