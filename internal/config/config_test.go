package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		ConfigDir:   filepath.Join(dir, "config"),
		ConfigFile:  filepath.Join(dir, "config", "config.json"),
		ProjectFile: filepath.Join(dir, "project", ProjectFileName),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaultsWhenFilesMissing(t *testing.T) {
	s, err := LoadFrom(context.Background(), testPaths(t))
	require.NoError(t, err)

	assert.Equal(t, "origin", s.GetString("default_remote"))
	assert.Equal(t, "pr-", s.GetString("pull_branch_name_prefix"))
	assert.Equal(t, 3, s.GetInt("max_pages"))
	assert.True(t, s.GetBool("color"))
}

func TestLoadLayersProjectOverGlobalOverDefaults(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"default_remote": "upstream", "github_user": "zeno", "alias": {"zeno": "zeno-rocha"}}`)
	writeFile(t, p.ProjectFile, `{"default_remote": "fork"}`)

	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "fork", s.GetString("default_remote"))
	assert.Equal(t, "zeno", s.GetString("github_user"))
	assert.Equal(t, "zeno-rocha", s.GetString("alias.zeno"))
	assert.Equal(t, "github.com", s.GetString("github_host"))
}

func TestLoadMergesShallowly(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"alias": {"a": "alpha", "b": "beta"}}`)
	writeFile(t, p.ProjectFile, `{"alias": {"c": "gamma"}}`)

	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "gamma", s.GetString("alias.c"))
	assert.False(t, s.IsSet("alias.a"), "project alias table replaces the global one")
}

func TestLoadInvalidJSONIsFatal(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"alias": `)

	_, err := LoadFrom(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), p.ConfigFile)
}

func TestWriteGlobalRoundTrip(t *testing.T) {
	p := testPaths(t)
	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, s.WriteGlobal("alias.foo", "bar"))
	require.NoError(t, s.WriteGlobal("plugins.jira.host", "jira.example.com"))

	g, err := LoadGlobal(p)
	require.NoError(t, err)
	assert.Equal(t, "bar", g.GetString("alias.foo"))
	assert.Equal(t, "jira.example.com", g.GetString("plugins.jira.host"))

	// The live merged view sees the write too.
	assert.Equal(t, "bar", s.GetString("alias.foo"))
}

func TestWriteGlobalWithoutJSONExtension(t *testing.T) {
	for _, name := range []string{"ghrc", "gh.conf"} {
		t.Run(name, func(t *testing.T) {
			p := testPaths(t)
			p.ConfigFile = filepath.Join(filepath.Dir(p.ConfigFile), name)
			writeFile(t, p.ConfigFile, `{"github_user": "octocat"}`)
			s, err := LoadFrom(context.Background(), p)
			require.NoError(t, err)

			require.NoError(t, s.WriteGlobal("alias.foo", "bar"))

			g, err := LoadGlobal(p)
			require.NoError(t, err)
			assert.Equal(t, "octocat", g.GetString("github_user"))
			assert.Equal(t, "bar", g.GetString("alias.foo"))
		})
	}
}

func TestWriteGlobalPreservesExistingKeys(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"github_user": "octocat", "alias": {"x": "y"}}`)
	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, s.WriteGlobal("alias.foo", "bar"))

	g, err := LoadGlobal(p)
	require.NoError(t, err)
	assert.Equal(t, "octocat", g.GetString("github_user"))
	assert.Equal(t, "y", g.GetString("alias.x"))
	assert.Equal(t, "bar", g.GetString("alias.foo"))
}

func TestRemoveGlobal(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"alias": {"foo": "bar", "keep": "me"}}`)
	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, s.RemoveGlobal("alias.foo"))
	assert.False(t, s.IsSet("alias.foo"))
	assert.Equal(t, "me", s.GetString("alias.keep"))

	// Removing again is a no-op.
	require.NoError(t, s.RemoveGlobal("alias.foo"))
}

func TestConfigDecode(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{
		"ignored_plugins": ["jira"],
		"hooks": {"issue": {"close": {"before": ["echo hi"]}}},
		"plugins": {"jira": {"host": "example"}}
	}`)
	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	cfg, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, "origin", cfg.DefaultRemote)
	assert.True(t, cfg.IsPluginIgnored("jira"))
	assert.False(t, cfg.IsPluginIgnored("other"))
	assert.Equal(t, "example", cfg.Plugins["jira"]["host"])
	assert.Equal(t, []string{"echo hi"}, s.GetStringSlice("hooks.issue.close.before"))
}

func TestDecodePath(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"plugins": {"jira": {"host": "example", "port": "8080"}}}`)
	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)

	var block struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	require.NoError(t, s.Decode("plugins.jira", &block))
	assert.Equal(t, "example", block.Host)
	assert.Equal(t, 8080, block.Port)
}

func TestTokenEnvOverride(t *testing.T) {
	t.Setenv("GH_TOKEN", "from-env")
	p := testPaths(t)
	writeFile(t, p.ConfigFile, `{"github_token": "from-file"}`)

	s, err := LoadFrom(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.GetString("github_token"))
}

func TestGetPathsRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/testxdg/config")
	t.Setenv("XDG_DATA_HOME", "/tmp/testxdg/data")
	t.Setenv("GH_CONFIG", "")
	t.Setenv("GH_PLUGINS_DIR", "")

	paths := GetPaths()
	assert.Equal(t, "/tmp/testxdg/config/gh", paths.ConfigDir)
	assert.Equal(t, "/tmp/testxdg/config/gh/config.json", paths.ConfigFile)
	assert.Equal(t, "/tmp/testxdg/data/gh/plugins", paths.PluginsDir)
}

func TestGetPathsConfigOverride(t *testing.T) {
	t.Setenv("GH_CONFIG", "/tmp/custom/gh.json")
	assert.Equal(t, "/tmp/custom/gh.json", GetPaths().ConfigFile)
}
