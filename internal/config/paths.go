package config

import (
	"os"
	"path/filepath"
)

// Paths returns standard XDG-compliant paths.
type Paths struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
	StateDir  string

	// ConfigFile is the per-user global config.
	ConfigFile string
	// ProjectFile is the optional per-project config in the working directory.
	ProjectFile string
	PluginsDir  string
	CacheDB     string
	VaultFile   string
	LogFile     string
}

// ProjectFileName is looked up in the current working directory.
const ProjectFileName = ".gh.json"

// GetPaths returns the resolved paths, respecting XDG env vars and GH_CONFIG.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := filepath.Join(envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config")), "gh")
	dataDir := filepath.Join(envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share")), "gh")
	cacheDir := filepath.Join(envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache")), "gh")
	stateDir := filepath.Join(envOr("XDG_STATE_HOME", filepath.Join(home, ".local", "state")), "gh")

	wd, _ := os.Getwd()

	return Paths{
		ConfigDir:   configDir,
		DataDir:     dataDir,
		CacheDir:    cacheDir,
		StateDir:    stateDir,
		ConfigFile:  envOr("GH_CONFIG", filepath.Join(configDir, "config.json")),
		ProjectFile: filepath.Join(wd, ProjectFileName),
		PluginsDir:  envOr("GH_PLUGINS_DIR", filepath.Join(dataDir, "plugins")),
		CacheDB:     filepath.Join(cacheDir, "http.db"),
		VaultFile:   filepath.Join(dataDir, "credentials.age"),
		LogFile:     filepath.Join(stateDir, "gh.log"),
	}
}

// EnsureDirs creates all required directories.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.ConfigDir, p.DataDir, p.CacheDir, p.StateDir}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
