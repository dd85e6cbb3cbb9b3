package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/testutil"
)

type sliceConfig map[string][]string

func (c sliceConfig) GetStringSlice(path string) []string { return c[path] }

type plugins []string

func (p plugins) Installed() []string { return p }

func newEngine(cfg sliceConfig, installed ...string) (*Engine, *testutil.FakeRunner) {
	fr := testutil.NewFakeRunner()
	return &Engine{
		Table:  &Table{Config: cfg, Plugins: plugins(installed)},
		Runner: fr,
		Lock:   &Lock{},
		RunID:  "run-1",
	}, fr
}

func testOptions() *options.Options {
	o := options.New()
	o.Command = "issue"
	o.User = "zeno"
	o.Number = 7
	return o
}

func TestLock(t *testing.T) {
	var l Lock
	if !l.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if l.TryAcquire() {
		t.Fatal("second TryAcquire should fail")
	}
	if !l.Held() {
		t.Error("lock should be held")
	}
	l.Release()
	if l.Held() {
		t.Error("lock should be free after Release")
	}

	var nilLock *Lock
	if nilLock.Held() {
		t.Error("nil lock is never held")
	}
}

func TestTableCommands(t *testing.T) {
	cfg := sliceConfig{
		"hooks.issue.close.before":               {"echo hi", "echo bye"},
		"plugins.jira.hooks.issue.close.before":  {"jira-close"},
		"plugins.bugs.hooks.issue.close.before":  {"bugs-close"},
		"plugins.other.hooks.issue.close.before": {"not installed"},
	}
	table := &Table{Config: cfg, Plugins: plugins{"jira", "bugs"}}

	got := table.Commands("issue.close", StageBefore)
	want := []string{"echo hi", "echo bye", "bugs-close", "jira-close"}
	if len(got) != len(want) {
		t.Fatalf("Commands() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Commands()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := table.Commands("issue.close", StageAfter); len(got) != 0 {
		t.Errorf("after hooks = %v, want none", got)
	}
	if got := (&Table{Config: sliceConfig{}}).Commands("issue.open", StageBefore); len(got) != 0 {
		t.Errorf("unconfigured path = %v, want none", got)
	}
}

func TestRender(t *testing.T) {
	data := map[string]any{
		"options":   testOptions().TemplateData(),
		"signature": "sent from <gh> & co",
	}
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"nested field", "echo {{options.number}} {{options.user}}", "echo 7 zeno"},
		{"missing renders empty", "echo {{options.nope}}", "echo"},
		{"missing parent", "echo {{nope.deeper}}x", "echo x"},
		{"no html escaping", "echo '{{signature}}'", "echo 'sent from <gh> & co'"},
		{"trimmed", "  {{options.nope}}  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, data)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	if _, err := Render("{{#open}}", nil); err == nil {
		t.Error("expected error for unclosed section")
	}
}

func TestBeforeRunsInOrder(t *testing.T) {
	e, fr := newEngine(sliceConfig{"hooks.issue.close.before": {"echo hi {{options.number}}", "echo bye"}})

	if err := e.Before(context.Background(), "issue.close", testOptions()); err != nil {
		t.Fatalf("Before() error = %v", err)
	}
	got := fr.ShellScripts()
	if len(got) != 2 || got[0] != "echo hi 7" || got[1] != "echo bye" {
		t.Errorf("scripts = %v", got)
	}
}

func TestBeforeNoHooksConfigured(t *testing.T) {
	e, fr := newEngine(sliceConfig{})
	if err := e.Before(context.Background(), "issue.close", testOptions()); err != nil {
		t.Fatalf("Before() error = %v", err)
	}
	if len(fr.Calls) != 0 {
		t.Errorf("expected no subprocesses, got %v", fr.CallLines())
	}
}

func TestLockedEngineSpawnsNothing(t *testing.T) {
	e, fr := newEngine(sliceConfig{
		"hooks.issue.close.before": {"echo hi"},
		"hooks.issue.close.after":  {"echo bye"},
	})
	e.Lock.TryAcquire()

	if err := e.Before(context.Background(), "issue.close", testOptions()); err != nil {
		t.Errorf("Before() error = %v", err)
	}
	if err := e.After(context.Background(), "issue.close", testOptions()); err != nil {
		t.Errorf("After() error = %v", err)
	}
	if len(fr.Calls) != 0 {
		t.Errorf("expected no subprocesses, got %v", fr.CallLines())
	}
}

func TestNoHooksFlag(t *testing.T) {
	e, fr := newEngine(sliceConfig{"hooks.issue.close.before": {"echo hi"}})
	opts := testOptions()
	opts.Hooks = false

	ran := false
	err := e.Invoke(context.Background(), "issue.close", opts, func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("Invoke() err = %v, ran = %v", err, ran)
	}
	if len(fr.Calls) != 0 {
		t.Errorf("expected no hooks, got %v", fr.CallLines())
	}
}

func TestInvokeSequence(t *testing.T) {
	e, fr := newEngine(sliceConfig{
		"hooks.issue.close.before": {"echo before"},
		"hooks.issue.close.after":  {"echo after"},
		"hooks.issue.open.before":  {"echo nested"},
	})

	var lockedInBody bool
	err := e.Invoke(context.Background(), "issue.close", testOptions(), func(ctx context.Context) error {
		lockedInBody = e.Lock.Held()
		return e.Invoke(ctx, "issue.open", testOptions(), func(context.Context) error { return nil })
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !lockedInBody {
		t.Error("lock should be held during body")
	}
	if e.Lock.Held() {
		t.Error("lock should be released after Invoke")
	}

	got := fr.ShellScripts()
	if len(got) != 2 || got[0] != "echo before" || got[1] != "echo after" {
		t.Errorf("scripts = %v, want [echo before echo after]", got)
	}
}

func TestInvokeBodyErrorSkipsAfter(t *testing.T) {
	e, fr := newEngine(sliceConfig{
		"hooks.issue.close.before": {"echo before"},
		"hooks.issue.close.after":  {"echo after"},
	})
	boom := errors.New("boom")

	err := e.Invoke(context.Background(), "issue.close", testOptions(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Invoke() error = %v, want boom", err)
	}
	if got := fr.ShellScripts(); len(got) != 1 || got[0] != "echo before" {
		t.Errorf("scripts = %v", got)
	}
	if e.Lock.Held() {
		t.Error("lock should be released after a failed body")
	}
}

func TestFailingHookDoesNotAbort(t *testing.T) {
	e, fr := newEngine(sliceConfig{"hooks.issue.close.before": {"exit 3", "echo still"}})
	fr.On("sh -c exit 3", testutil.Response{Code: 3})

	if err := e.Before(context.Background(), "issue.close", testOptions()); err != nil {
		t.Fatalf("Before() error = %v", err)
	}
	if got := fr.ShellScripts(); len(got) != 2 {
		t.Errorf("scripts = %v, want both to run", got)
	}
}

type jiraSetup struct{}

func (jiraSetup) Name() string { return "jira" }

func (jiraSetup) Setup(_ context.Context, _ string, _ Stage, data map[string]any) (map[string]any, error) {
	return map[string]any{"jira": map[string]any{"ticket": "GH-" + data["run_id"].(string)}}, nil
}

func TestContributorsAddTemplateFields(t *testing.T) {
	e, fr := newEngine(sliceConfig{"plugins.jira.hooks.issue.close.after": {"echo {{jira.ticket}}"}}, "jira")
	e.Contributors = []Contributor{jiraSetup{}}

	if err := e.After(context.Background(), "issue.close", testOptions()); err != nil {
		t.Fatalf("After() error = %v", err)
	}
	if got := fr.ShellScripts(); len(got) != 1 || got[0] != "echo GH-run-1" {
		t.Errorf("scripts = %v", got)
	}
}

func TestActivePluginTemplateField(t *testing.T) {
	e, fr := newEngine(sliceConfig{"hooks.jira.before": {"echo {{plugin}} {{options.user}}"}})
	e.Plugin = "jira"

	if err := e.Before(context.Background(), "jira", testOptions()); err != nil {
		t.Fatalf("Before() error = %v", err)
	}
	if got := fr.ShellScripts(); len(got) != 1 || got[0] != "echo jira zeno" {
		t.Errorf("scripts = %v", got)
	}
}
