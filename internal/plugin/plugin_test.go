package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/hook"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/runner"
	"github.com/rnwolfe/gh/internal/testutil"
)

const jiraManifest = `
[plugin]
name = "jira"
version = "0.3.0"
description = "Jira integration"
setup_hooks = true

[details]
alias = "ji"
commands = ["transition", "comment"]
iterative = "ticket"
payload = true

[details.options]
transition = { type = "bool" }
comment = { type = "string" }
ticket = { type = "list" }
status = { type = "enum", values = ["todo", "done"] }

[details.shorthands]
t = "transition"

[config]
host = "jira.example.com"

[config.hooks.issue.close]
after = ["echo closing {{options.number}} in jira"]
`

func writePlugin(t *testing.T, root, dirName, manifest string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testStore(t *testing.T) *config.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := config.LoadFrom(context.Background(), config.Paths{
		ConfigFile:  filepath.Join(dir, "config.json"),
		ProjectFile: filepath.Join(dir, "project", ".gh.json"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseManifest(t *testing.T) {
	dir := writePlugin(t, t.TempDir(), "gh-jira", jiraManifest)

	m, err := ParseManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("ParseManifest() error: %v", err)
	}

	if m.Plugin.Name != "jira" || m.Details.Name != "jira" {
		t.Errorf("names = %q/%q, want jira", m.Plugin.Name, m.Details.Name)
	}
	if m.Details.Description != "Jira integration" {
		t.Errorf("Description = %q", m.Details.Description)
	}
	if m.Details.Options["status"].Type != options.TypeEnum {
		t.Errorf("status type = %q", m.Details.Options["status"].Type)
	}
	if m.Details.Shorthands["t"] != "transition" {
		t.Errorf("Shorthands = %v", m.Details.Shorthands)
	}
	if !m.Plugin.SetupHooks || !m.Details.Payload {
		t.Error("setup_hooks and payload should be true")
	}
	if m.Entrypoint() != "gh-jira" {
		t.Errorf("Entrypoint() = %q", m.Entrypoint())
	}
	if _, ok := m.Config["hooks"]; !ok {
		t.Errorf("Config = %v, want hooks", m.Config)
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{"missing name", "[plugin]\nversion = \"1\"\n", "plugin.name is required"},
		{"bad name", "[plugin]\nname = \"My_Plugin\"\nversion = \"1\"\n", "kebab-case"},
		{"missing version", "[plugin]\nname = \"x\"\n", "plugin.version is required"},
		{"bad descriptor", "[plugin]\nname = \"x\"\nversion = \"1\"\n[details]\ncommands = [\"go\"]\n", "details"},
		{"bad toml", "[plugin\n", "parsing manifest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePlugin(t, t.TempDir(), "gh-x", tt.manifest)
			_, err := ParseManifest(filepath.Join(dir, ManifestFile))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	l := &Loader{Dir: t.TempDir()}
	for _, name := range []string{"nope", "", "../etc"} {
		_, err := l.Load(context.Background(), name)
		if !errors.Is(err, command.ErrCommandNotFound) {
			t.Errorf("Load(%q) err = %v, want ErrCommandNotFound", name, err)
		}
	}
}

func TestLoadIgnored(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gh-jira", jiraManifest)
	store := testStore(t)
	if err := store.WriteGlobal("ignored_plugins", []string{"jira"}); err != nil {
		t.Fatal(err)
	}

	l := &Loader{Dir: root, Config: store}
	if _, err := l.Load(context.Background(), "jira"); !errors.Is(err, command.ErrCommandNotFound) {
		t.Errorf("err = %v, want ErrCommandNotFound", err)
	}
	if got := l.Installed(); len(got) != 0 {
		t.Errorf("Installed() = %v, want none", got)
	}
}

func TestLoadBrokenManifestIsLoadError(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gh-bad", "[plugin]\nname = \"bad\"\n")

	l := &Loader{Dir: root}
	_, err := l.Load(context.Background(), "bad")
	if err == nil || errors.Is(err, command.ErrCommandNotFound) {
		t.Fatalf("err = %v, want load error", err)
	}
}

func TestLoadMergesDefaultsOnce(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gh-jira", jiraManifest)
	store := testStore(t)
	l := &Loader{Dir: root, Config: store, Runner: testutil.NewFakeRunner()}

	c, err := l.Load(context.Background(), "jira")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Describe().Name != "jira" {
		t.Errorf("Describe().Name = %q", c.Describe().Name)
	}

	if !store.GetBool("plugins.jira.merged") {
		t.Error("merged flag not written")
	}
	if got := store.GetString("plugins.jira.host"); got != "jira.example.com" {
		t.Errorf("host = %q", got)
	}
	want := []string{"echo closing {{options.number}} in jira"}
	if got := store.GetStringSlice("plugins.jira.hooks.issue.close.after"); !reflect.DeepEqual(got, want) {
		t.Errorf("hooks = %v, want %v", got, want)
	}

	// A user edit survives the next load.
	if err := store.WriteGlobal("plugins.jira.host", "mine.example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), "jira"); err != nil {
		t.Fatal(err)
	}
	if got := store.GetString("plugins.jira.host"); got != "mine.example.com" {
		t.Errorf("host after reload = %q, want user value", got)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gh-jira", jiraManifest)
	writePlugin(t, root, "gh-alpha", "[plugin]\nname = \"alpha\"\nversion = \"1.0.0\"\n")
	writePlugin(t, root, "gh-broken", "[plugin]\nname = \"broken\"\n")
	writePlugin(t, root, "not-a-plugin", "[plugin]\nname = \"other\"\nversion = \"1\"\n")

	l := &Loader{Dir: root}
	if got, want := l.Installed(), []string{"alpha", "jira"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Installed() = %v, want %v", got, want)
	}

	infos := l.Infos()
	if len(infos) != 2 || infos[1].Version != "0.3.0" || infos[1].Alias != "ji" {
		t.Errorf("Infos() = %+v", infos)
	}

	found, err := l.Discover()
	if err != nil || len(found) != 2 {
		t.Errorf("Discover() = %v, %v", found, err)
	}

	contribs := l.Contributors()
	if len(contribs) != 1 || contribs[0].Name() != "jira" {
		t.Errorf("Contributors() = %v", contribs)
	}
}

func TestDiscoverMergesHooksBeforeFirstRun(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gh-jira", jiraManifest)
	store := testStore(t)
	l := &Loader{Dir: root, Config: store, Runner: testutil.NewFakeRunner()}
	table := &hook.Table{Config: store, Plugins: l}

	want := []string{"echo closing {{options.number}} in jira"}
	if got := table.Commands("issue.close", hook.StageAfter); !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
	if !store.GetBool("plugins.jira.merged") {
		t.Error("merged flag not written")
	}
}

func TestDiscoverSkipsIgnoredDefaults(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gh-jira", jiraManifest)
	store := testStore(t)
	if err := store.WriteGlobal("ignored_plugins", []string{"jira"}); err != nil {
		t.Fatal(err)
	}
	l := &Loader{Dir: root, Config: store}

	if got := l.Installed(); len(got) != 0 {
		t.Errorf("Installed() = %v", got)
	}
	if store.IsSet("plugins.jira.hooks") {
		t.Error("ignored plugin defaults were merged")
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	l := &Loader{Dir: filepath.Join(t.TempDir(), "none")}
	found, err := l.Discover()
	if err != nil || len(found) != 0 {
		t.Errorf("Discover() = %v, %v", found, err)
	}
}

func loadJira(t *testing.T, fr *testutil.FakeRunner) (*Handle, string) {
	t.Helper()
	root := t.TempDir()
	dir := writePlugin(t, root, "gh-jira", jiraManifest)
	l := &Loader{Dir: root, Runner: fr}
	c, err := l.Load(context.Background(), "jira")
	if err != nil {
		t.Fatal(err)
	}
	return c.(*Handle), filepath.Join(dir, "gh-jira")
}

func readInvocation(t *testing.T, r io.Reader) Invocation {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	var inv Invocation
	if err := json.Unmarshal(data, &inv); err != nil {
		t.Fatalf("stdin is not an invocation: %v", err)
	}
	return inv
}

func TestRunSendsCommandInvocation(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, bin := loadJira(t, fr)

	opts, err := options.Parse(h.Describe(), []string{"jira", "-t", "--ticket", "GH-1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Run(context.Background(), &command.Env{}, opts); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(fr.Calls) != 1 {
		t.Fatalf("calls = %v", fr.CallLines())
	}
	c := fr.Calls[0]
	if c.Name != bin || !c.Interactive {
		t.Errorf("cmd = %+v", c)
	}
	if !reflect.DeepEqual(c.Env, []string{"GH_PLUGIN=jira", "GH_PLUGIN_DIR=" + filepath.Dir(bin)}) {
		t.Errorf("env = %v", c.Env)
	}

	inv := readInvocation(t, c.Stdin)
	if inv.Type != InvocationCommand || inv.Command != "jira.transition" {
		t.Errorf("invocation = %+v", inv)
	}
	if inv.ProtocolVersion != ProtocolVersion {
		t.Errorf("protocol = %q", inv.ProtocolVersion)
	}
	if inv.Options["ticket"] != "GH-1" {
		t.Errorf("options = %v", inv.Options)
	}
}

func TestRunFiresHooks(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, _ := loadJira(t, fr)

	cfg := hookConfig{"hooks.jira.transition.before": {"echo before"}}
	env := &command.Env{Hooks: &hook.Engine{
		Table:  &hook.Table{Config: cfg},
		Runner: fr,
		Lock:   &hook.Lock{},
	}}
	opts, err := options.Parse(h.Describe(), []string{"jira", "--transition"})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Run(context.Background(), env, opts); err != nil {
		t.Fatal(err)
	}

	calls := fr.CallLines()
	if len(calls) != 2 || calls[0] != "sh -c echo before" {
		t.Errorf("calls = %v", calls)
	}
}

func TestRunFailureIsWarning(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, bin := loadJira(t, fr)
	fr.On(bin, testutil.Response{Code: 2, Stderr: "boom"})

	err := h.Run(context.Background(), nil, options.New())
	if !command.IsWarning(err) {
		t.Errorf("err = %v, want warning", err)
	}
}

func TestPayloadAppliesOptions(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, bin := loadJira(t, fr)
	fr.On(bin, testutil.Response{Stdout: `{"options": {"ticket": ["GH-2", "GH-3"], "transition": true}}`})

	opts := options.New()
	if err := h.Payload([]string{"GH-2", "GH-3"}, opts); err != nil {
		t.Fatalf("Payload() error: %v", err)
	}
	if !reflect.DeepEqual(opts.List("ticket"), []string{"GH-2", "GH-3"}) {
		t.Errorf("ticket = %v", opts.List("ticket"))
	}
	if !opts.IsSet("transition") || !opts.Bool("transition") {
		t.Error("transition not set")
	}

	inv := readInvocation(t, fr.Calls[0].Stdin)
	if inv.Type != InvocationPayload || !reflect.DeepEqual(inv.Args, []string{"GH-2", "GH-3"}) {
		t.Errorf("invocation = %+v", inv)
	}
}

func TestPayloadRejectsUndeclaredOption(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, bin := loadJira(t, fr)
	fr.On(bin, testutil.Response{Stdout: `{"options": {"sneaky": "x"}}`})

	if err := h.Payload(nil, options.New()); err == nil {
		t.Error("want error for undeclared option")
	}
}

func TestSetupReturnsContext(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, bin := loadJira(t, fr)
	fr.On(bin, testutil.Response{Stdout: `{"context": {"jira_url": "https://jira/GH-1"}}`})

	extra, err := h.Setup(context.Background(), "issue.close", hook.StageAfter, map[string]any{"run_id": "r1"})
	if err != nil {
		t.Fatal(err)
	}
	if extra["jira_url"] != "https://jira/GH-1" {
		t.Errorf("context = %v", extra)
	}

	inv := readInvocation(t, fr.Calls[0].Stdin)
	if inv.Type != InvocationSetup || inv.Stage != "after" || inv.RunID != "r1" {
		t.Errorf("invocation = %+v", inv)
	}
}

func TestSetupSkippedWithoutFlag(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h := &Handle{manifest: Manifest{Plugin: Meta{Name: "quiet", Version: "1"}}, runner: fr}

	extra, err := h.Setup(context.Background(), "issue.close", hook.StageBefore, nil)
	if err != nil || extra != nil {
		t.Errorf("Setup() = %v, %v", extra, err)
	}
	if len(fr.Calls) != 0 {
		t.Errorf("spawned %v", fr.CallLines())
	}
}

func TestResponseError(t *testing.T) {
	fr := testutil.NewFakeRunner()
	h, bin := loadJira(t, fr)
	fr.On(bin, testutil.Response{Stdout: `{"error": "token expired"}`})

	_, err := h.Setup(context.Background(), "x", hook.StageBefore, nil)
	if err == nil || !strings.Contains(err.Error(), "token expired") {
		t.Errorf("err = %v", err)
	}
}

// hangingRunner blocks until the context ends.
type hangingRunner struct{}

func (hangingRunner) Run(ctx context.Context, _ runner.Cmd) (runner.Result, error) {
	<-ctx.Done()
	return runner.Result{}, ctx.Err()
}

func TestCaptureTimeout(t *testing.T) {
	old := CaptureTimeout
	CaptureTimeout = 10 * time.Millisecond
	t.Cleanup(func() { CaptureTimeout = old })

	h := &Handle{
		manifest: Manifest{Plugin: Meta{Name: "slow", Version: "1", SetupHooks: true}},
		runner:   hangingRunner{},
	}
	_, err := h.Setup(context.Background(), "issue.close", hook.StageBefore, nil)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("err = %v", err)
	}
}

type hookConfig map[string][]string

func (h hookConfig) GetStringSlice(path string) []string { return h[path] }

func TestExamplePluginManifest(t *testing.T) {
	m, err := ParseManifest(filepath.Join("..", "..", "docs", "examples", "plugins", "gh-label", ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if m.Plugin.Name != "label" || m.Details.Alias != "lb" || !m.Details.Payload {
		t.Errorf("manifest = %+v", m)
	}
	if m.Entrypoint() != "gh-label" {
		t.Errorf("entrypoint = %q", m.Entrypoint())
	}
	if m.Config["default_label"] != "untriaged" {
		t.Errorf("config = %v", m.Config)
	}
}
