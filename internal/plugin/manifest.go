// Package plugin discovers and runs third-party gh commands.
//
// A plugin is a directory named gh-<name> inside the plugins directory
// holding a gh-plugin.toml manifest and an executable entrypoint. gh talks
// to the entrypoint over a JSON envelope on stdin.
package plugin

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/rnwolfe/gh/internal/options"
)

// ManifestFile is the manifest's file name inside a plugin directory.
const ManifestFile = "gh-plugin.toml"

// DirPrefix prefixes every plugin directory name.
const DirPrefix = "gh-"

// validPluginName enforces kebab-case: lowercase letters, digits, and hyphens.
var validPluginName = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Manifest is a parsed gh-plugin.toml.
type Manifest struct {
	Plugin  Meta               `toml:"plugin"`
	Details options.Descriptor `toml:"details"`
	// Config is merged into the user's global config under
	// plugins.<name> the first time the plugin loads.
	Config map[string]any `toml:"config"`
}

// Meta identifies the plugin.
type Meta struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Entrypoint  string `toml:"entrypoint"`
	// SetupHooks asks gh to call the entrypoint with a setup invocation
	// before rendering hooks, so it can add template fields.
	SetupHooks bool `toml:"setup_hooks"`
}

// ParseManifest reads and validates a gh-plugin.toml file.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	m.Details.Name = m.Plugin.Name
	if m.Details.Description == "" {
		m.Details.Description = m.Plugin.Description
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Validate checks required fields and the embedded command descriptor.
func (m *Manifest) Validate() error {
	if m.Plugin.Name == "" {
		return errors.New("plugin.name is required")
	}
	if !validPluginName.MatchString(m.Plugin.Name) {
		return fmt.Errorf("plugin.name %q must be kebab-case (lowercase letters, digits, and hyphens)", m.Plugin.Name)
	}
	if m.Plugin.Version == "" {
		return errors.New("plugin.version is required")
	}
	if err := m.Details.Validate(); err != nil {
		return fmt.Errorf("details: %w", err)
	}
	return nil
}

// Entrypoint returns the executable's file name inside the plugin directory.
func (m *Manifest) Entrypoint() string {
	if m.Plugin.Entrypoint != "" {
		return m.Plugin.Entrypoint
	}
	return DirPrefix + m.Plugin.Name
}
