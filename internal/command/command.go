// Package command defines what a gh command is and how one is found.
//
// Built-in commands and plugins both satisfy Command. The Registry resolves
// a name in order: built-in name, built-in alias, then the plugin loader.
package command

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/git"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/hook"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/runner"
	"github.com/rnwolfe/gh/internal/ui"
)

// Command is a runnable gh command.
type Command interface {
	// Describe returns the command's static schema.
	Describe() options.Descriptor
	// Run executes one iteration of the command.
	Run(ctx context.Context, env *Env, opts *options.Options) error
}

// Payloader is implemented by commands that interpret bare positional
// arguments.
type Payloader = options.Payloader

// Kind tags where a Module came from.
type Kind int

const (
	KindBuiltIn Kind = iota
	KindPlugin
)

func (k Kind) String() string {
	if k == KindPlugin {
		return "plugin"
	}
	return "built-in"
}

// Module is a resolved command.
type Module struct {
	Kind    Kind
	Command Command
}

// Name returns the command's canonical name.
func (m Module) Name() string {
	return m.Command.Describe().Name
}

// Descriptor returns the command's schema.
func (m Module) Descriptor() options.Descriptor {
	return m.Command.Describe()
}

// PluginInfo describes an installed plugin for help and version output.
type PluginInfo struct {
	Name        string
	Version     string
	Description string
	Alias       string
}

// Env carries the collaborators a command body uses.
type Env struct {
	Config *config.Store
	// API is nil until a command needs it; use Env.Client.
	API github.API
	// NewAPI builds a client. An empty token means the configured one.
	NewAPI func(ctx context.Context, token string) (github.API, error)
	Git    *git.Client
	Runner runner.Runner
	Hooks  *hook.Engine
	Out    *ui.Printer
	In     io.Reader
	Log    zerolog.Logger

	Registry *Registry
	// Plugins lists installed plugins. May be nil.
	Plugins func() []PluginInfo
	// Interactive reports whether stdin and stdout are terminals.
	Interactive bool
}

// Client returns the API client, creating it on first use.
func (e *Env) Client(ctx context.Context) (github.API, error) {
	if e.API != nil {
		return e.API, nil
	}
	if e.NewAPI == nil {
		return nil, Fatalf("no API client configured")
	}
	api, err := e.NewAPI(ctx, "")
	if err != nil {
		return nil, Fatal(err)
	}
	e.API = api
	return api, nil
}
