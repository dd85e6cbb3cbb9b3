// Package config loads gh's layered JSON configuration.
//
// Three documents are merged key-by-key at the top level, highest
// precedence first:
//  1. Project config (./.gh.json)
//  2. Global config ($XDG_CONFIG_HOME/gh/config.json or $GH_CONFIG)
//  3. Built-in defaults (default.json, embedded)
//
// A missing global or project file is the common case and yields the
// lower layers. Any other read or parse error is returned to the caller.
// Writes only ever touch the global file.
package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

//go:embed default.json
var defaultJSON []byte

// Config is the typed view of the merged configuration.
type Config struct {
	Alias                map[string]string         `mapstructure:"alias"`
	Hooks                map[string]any            `mapstructure:"hooks"`
	Plugins              map[string]map[string]any `mapstructure:"plugins"`
	IgnoredPlugins       []string                  `mapstructure:"ignored_plugins"`
	PluginsDir           string                    `mapstructure:"plugins_dir"`
	DefaultRemote        string                    `mapstructure:"default_remote"`
	DefaultBranch        string                    `mapstructure:"default_branch"`
	PullBranchNamePrefix string                    `mapstructure:"pull_branch_name_prefix"`
	GitHubUser           string                    `mapstructure:"github_user"`
	GitHubToken          string                    `mapstructure:"github_token"`
	GitHubHost           string                    `mapstructure:"github_host"`
	APIURL               string                    `mapstructure:"api_url"`
	Signature            string                    `mapstructure:"signature"`
	MaxPages             int                       `mapstructure:"max_pages"`
	Color                bool                      `mapstructure:"color"`
}

// IsPluginIgnored reports whether name is listed in ignored_plugins.
func (c *Config) IsPluginIgnored(name string) bool {
	for _, p := range c.IgnoredPlugins {
		if p == name {
			return true
		}
	}
	return false
}

// Store is the merged configuration for one gh invocation.
type Store struct {
	paths Paths
	v     *viper.Viper
}

// Load reads the layered configuration from the standard paths.
func Load(ctx context.Context) (*Store, error) {
	return LoadFrom(ctx, GetPaths())
}

// LoadFrom reads the layered configuration from explicit paths.
func LoadFrom(ctx context.Context, paths Paths) (*Store, error) {
	s := &Store{paths: paths}
	if err := s.reload(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("global", paths.ConfigFile).
		Str("project", paths.ProjectFile).
		Msg("configuration loaded")
	return s, nil
}

// LoadGlobal reads only the global config file, without defaults or the
// project layer. A missing file yields an empty store.
func LoadGlobal(paths Paths) (*Store, error) {
	settings, err := readLayer(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, fmt.Errorf("merging global config: %w", err)
	}
	return &Store{paths: paths, v: v}, nil
}

func (s *Store) reload() error {
	defaults, err := readDefaults()
	if err != nil {
		return err
	}
	global, err := readLayer(s.paths.ConfigFile)
	if err != nil {
		return err
	}
	project, err := readLayer(s.paths.ProjectFile)
	if err != nil {
		return err
	}

	merged := make(map[string]any, len(defaults))
	for _, layer := range []map[string]any{defaults, global, project} {
		for k, val := range layer {
			merged[k] = val
		}
	}

	v := viper.New()
	if err := v.MergeConfigMap(merged); err != nil {
		return fmt.Errorf("merging config layers: %w", err)
	}
	_ = v.BindEnv("github_token", "GH_TOKEN")
	_ = v.BindEnv("plugins_dir", "GH_PLUGINS_DIR")
	s.v = v
	return nil
}

// readDefaults parses the embedded default document.
func readDefaults() (map[string]any, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaultJSON)); err != nil {
		return nil, fmt.Errorf("parsing default config: %w", err)
	}
	return v.AllSettings(), nil
}

// readLayer reads one JSON config document. A missing file is not an error.
func readLayer(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return v.AllSettings(), nil
}

// Paths returns the paths this store was loaded from.
func (s *Store) Paths() Paths {
	return s.paths
}

// Get returns the value at a dotted path, or nil.
func (s *Store) Get(path string) any {
	return s.v.Get(path)
}

// IsSet reports whether a dotted path has a value.
func (s *Store) IsSet(path string) bool {
	return s.v.IsSet(path)
}

// GetString returns the string at a dotted path.
func (s *Store) GetString(path string) string {
	return s.v.GetString(path)
}

// GetBool returns the bool at a dotted path.
func (s *Store) GetBool(path string) bool {
	return s.v.GetBool(path)
}

// GetInt returns the int at a dotted path.
func (s *Store) GetInt(path string) int {
	return s.v.GetInt(path)
}

// GetStringSlice returns the string list at a dotted path.
func (s *Store) GetStringSlice(path string) []string {
	return s.v.GetStringSlice(path)
}

// GetStringMapString returns the string map at a dotted path.
func (s *Store) GetStringMapString(path string) map[string]string {
	return s.v.GetStringMapString(path)
}

// Keys returns the sorted child keys of the map at path.
func (s *Store) Keys(path string) []string {
	m := s.v.GetStringMap(path)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode decodes the value at path into out using mapstructure.
func (s *Store) Decode(path string, out any) error {
	raw := s.v.Get(path)
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// Config decodes the whole merged configuration.
func (s *Store) Config() (*Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// WriteGlobal sets value at a dotted path in the global config file and
// refreshes the merged view.
func (s *Store) WriteGlobal(path string, value any) error {
	settings, err := readLayer(s.paths.ConfigFile)
	if err != nil {
		return err
	}
	g := viper.New()
	if err := g.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("merging global config: %w", err)
	}
	g.Set(path, value)

	if err := writeLayer(s.paths.ConfigFile, g); err != nil {
		return err
	}
	return s.reload()
}

// RemoveGlobal deletes a dotted path from the global config file and
// refreshes the merged view. Removing a missing path is a no-op.
func (s *Store) RemoveGlobal(path string) error {
	settings, err := readLayer(s.paths.ConfigFile)
	if err != nil {
		return err
	}
	if !deleteNested(settings, strings.Split(strings.ToLower(path), ".")) {
		return nil
	}

	g := viper.New()
	if err := g.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("merging global config: %w", err)
	}
	if err := writeLayer(s.paths.ConfigFile, g); err != nil {
		return err
	}
	return s.reload()
}

// writeLayer always writes JSON, whatever the file's extension.
func writeLayer(path string, v *viper.Viper) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	v.SetConfigType("json")
	if err := v.WriteConfigTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// deleteNested removes keys[len-1] from the map found by walking keys.
func deleteNested(m map[string]any, keys []string) bool {
	if m == nil || len(keys) == 0 {
		return false
	}
	if len(keys) == 1 {
		if _, ok := m[keys[0]]; !ok {
			return false
		}
		delete(m, keys[0])
		return true
	}
	child, ok := m[keys[0]].(map[string]any)
	if !ok {
		return false
	}
	return deleteNested(child, keys[1:])
}
