package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/hook"
	"github.com/rnwolfe/gh/internal/runner"
)

// ConfigStore is the slice of the config store the loader needs.
type ConfigStore interface {
	GetBool(path string) bool
	GetStringSlice(path string) []string
	WriteGlobal(path string, value any) error
}

// Loader finds plugins in a directory and loads them on demand.
type Loader struct {
	Dir    string
	Config ConfigStore
	Runner runner.Runner
	Log    zerolog.Logger

	scanned []*Handle
	scanErr error
	done    bool
}

// Installed is a discovered plugin.
type Installed struct {
	Manifest Manifest
	Dir      string
}

// Load implements command.PluginLoader. A missing or ignored plugin wraps
// command.ErrCommandNotFound; a broken manifest is a load error.
func (l *Loader) Load(ctx context.Context, name string) (command.Command, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || l.ignored(name) {
		return nil, fmt.Errorf("plugin %s: %w", name, command.ErrCommandNotFound)
	}

	dir := filepath.Join(l.Dir, DirPrefix+name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("plugin %s: %w", name, command.ErrCommandNotFound)
	}

	m, err := ParseManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	if m.Plugin.Name != name {
		return nil, fmt.Errorf("directory %s holds plugin %q", filepath.Base(dir), m.Plugin.Name)
	}

	if err := l.mergeDefaults(m); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "plugin").
		Str("plugin", name).
		Str("version", m.Plugin.Version).
		Msg("plugin loaded")
	return &Handle{manifest: *m, dir: dir, runner: l.Runner}, nil
}

// mergeDefaults copies the manifest's [config] block into the global
// config under plugins.<name> once, then marks it merged.
func (l *Loader) mergeDefaults(m *Manifest) error {
	if l.Config == nil || len(m.Config) == 0 {
		return nil
	}
	prefix := "plugins." + m.Plugin.Name
	if l.Config.GetBool(prefix + ".merged") {
		return nil
	}

	keys := make([]string, 0, len(m.Config))
	for k := range m.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := l.Config.WriteGlobal(prefix+"."+k, m.Config[k]); err != nil {
			return fmt.Errorf("merging %s defaults: %w", m.Plugin.Name, err)
		}
	}
	return l.Config.WriteGlobal(prefix+".merged", true)
}

func (l *Loader) ignored(name string) bool {
	if l.Config == nil {
		return false
	}
	return slices.Contains(l.Config.GetStringSlice("ignored_plugins"), name)
}

// Discover scans the plugins directory once. Broken plugins are logged and
// skipped; a missing directory yields no plugins. Each plugin's [config]
// block is merged into the global config the first time it is seen, so its
// hooks apply before the plugin itself has ever run.
func (l *Loader) Discover() ([]Installed, error) {
	handles, err := l.scan()
	if err != nil {
		return nil, err
	}
	out := make([]Installed, len(handles))
	for i, h := range handles {
		out[i] = Installed{Manifest: h.manifest, Dir: h.dir}
	}
	return out, nil
}

func (l *Loader) scan() ([]*Handle, error) {
	if l.done {
		return l.scanned, l.scanErr
	}
	l.done = true

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		l.scanErr = fmt.Errorf("reading plugins dir: %w", err)
		return nil, l.scanErr
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), DirPrefix) {
			continue
		}
		dir := filepath.Join(l.Dir, e.Name())
		m, err := ParseManifest(filepath.Join(dir, ManifestFile))
		if err != nil {
			l.Log.Debug().Err(err).Str("dir", dir).Msg("skipping plugin")
			continue
		}
		if l.ignored(m.Plugin.Name) {
			continue
		}
		if err := l.mergeDefaults(m); err != nil {
			l.Log.Debug().Err(err).Str("plugin", m.Plugin.Name).Msg("merging plugin defaults")
		}
		l.scanned = append(l.scanned, &Handle{manifest: *m, dir: dir, runner: l.Runner})
	}
	sort.Slice(l.scanned, func(i, j int) bool {
		return l.scanned[i].Name() < l.scanned[j].Name()
	})
	return l.scanned, nil
}

// Installed implements hook.PluginLister: the names of installed,
// non-ignored plugins in name order.
func (l *Loader) Installed() []string {
	handles, _ := l.scan()
	names := make([]string, len(handles))
	for i, h := range handles {
		names[i] = h.Name()
	}
	return names
}

// Infos lists installed plugins for help and version output.
func (l *Loader) Infos() []command.PluginInfo {
	handles, _ := l.scan()
	out := make([]command.PluginInfo, len(handles))
	for i, h := range handles {
		out[i] = command.PluginInfo{
			Name:        h.Name(),
			Version:     h.manifest.Plugin.Version,
			Description: h.manifest.Plugin.Description,
			Alias:       h.manifest.Details.Alias,
		}
	}
	return out
}

// Contributors returns the installed plugins that declared setup_hooks.
func (l *Loader) Contributors() []hook.Contributor {
	handles, _ := l.scan()
	var out []hook.Contributor
	for _, h := range handles {
		if h.manifest.Plugin.SetupHooks {
			out = append(out, h)
		}
	}
	return out
}
