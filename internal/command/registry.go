package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rnwolfe/gh/internal/options"
)

// PluginLoader finds third-party commands on disk. Load returns an error
// wrapping ErrCommandNotFound when no plugin of that name is installed.
type PluginLoader interface {
	Load(ctx context.Context, name string) (Command, error)
}

// Registry holds built-in commands and falls back to a plugin loader.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	byAlias map[string]Command
	loader  PluginLoader
}

// NewRegistry creates an empty registry. loader may be nil.
func NewRegistry(loader PluginLoader) *Registry {
	return &Registry{
		byName:  make(map[string]Command),
		byAlias: make(map[string]Command),
		loader:  loader,
	}
}

// SetLoader replaces the plugin loader.
func (r *Registry) SetLoader(loader PluginLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loader = loader
}

// Register adds a built-in command. An invalid descriptor or a name clash
// is a programming error and panics.
func (r *Registry) Register(c Command) {
	if err := r.register(c); err != nil {
		panic(err)
	}
}

func (r *Registry) register(c Command) error {
	desc := c.Describe()
	if err := desc.Validate(); err != nil {
		return fmt.Errorf("command %q: %w", desc.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[desc.Name]; exists {
		return fmt.Errorf("command already registered: %s", desc.Name)
	}
	if desc.Alias != "" {
		if _, exists := r.byAlias[desc.Alias]; exists {
			return fmt.Errorf("command alias already registered: %s", desc.Alias)
		}
		if _, exists := r.byName[desc.Alias]; exists {
			return fmt.Errorf("command alias shadows a command: %s", desc.Alias)
		}
	}

	r.byName[desc.Name] = c
	if desc.Alias != "" {
		r.byAlias[desc.Alias] = c
	}
	return nil
}

// Resolve finds the command for name: exact built-in name, then built-in
// alias, then an installed plugin.
func (r *Registry) Resolve(ctx context.Context, name string) (Module, error) {
	r.mu.RLock()
	c, ok := r.byName[name]
	if !ok {
		c, ok = r.byAlias[name]
	}
	loader := r.loader
	r.mu.RUnlock()

	if ok {
		return Module{Kind: KindBuiltIn, Command: c}, nil
	}
	if name == "" || loader == nil {
		return Module{}, fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}

	p, err := loader.Load(ctx, name)
	if err != nil {
		if errors.Is(err, ErrCommandNotFound) {
			return Module{}, fmt.Errorf("%w: %s", ErrCommandNotFound, name)
		}
		return Module{}, fmt.Errorf("loading plugin %s: %w", name, err)
	}
	return Module{Kind: KindPlugin, Command: p}, nil
}

// BuiltIns returns the built-in commands sorted by name.
func (r *Registry) BuiltIns() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, len(names))
	for i, name := range names {
		result[i] = r.byName[name]
	}
	return result
}

// Names returns every built-in name and alias, sorted. Used for completion.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName)+len(r.byAlias))
	for name := range r.byName {
		names = append(names, name)
	}
	for alias := range r.byAlias {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the descriptors of every built-in, sorted by name.
func (r *Registry) Descriptors() []options.Descriptor {
	cmds := r.BuiltIns()
	out := make([]options.Descriptor, len(cmds))
	for i, c := range cmds {
		out[i] = c.Describe()
	}
	return out
}
