// Package dispatch runs one gh invocation: it parses argv, resolves the
// command, normalizes options, and executes the command body once per
// iterative value.
package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/hook"
)

// State is a dispatcher lifecycle state.
type State int

const (
	ParsingArgs State = iota
	ResolvingCommand
	NormalizingOptions
	DerivingContext
	Executing
	Done
	Failed
)

var stateNames = map[State]string{
	ParsingArgs:        "parsing-args",
	ResolvingCommand:   "resolving-command",
	NormalizingOptions: "normalizing-options",
	DerivingContext:    "deriving-context",
	Executing:          "executing",
	Done:               "done",
	Failed:             "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// ConfigLoader reads the merged configuration.
type ConfigLoader func(ctx context.Context) (*config.Store, error)

// RunContext is the per-invocation state shared by the pipeline.
type RunContext struct {
	ID string
	// Lock guards hooks against reentry for the whole run.
	Lock *hook.Lock
	// ActivePlugin is set when the resolved command is a plugin.
	ActivePlugin string
	State        State
	// Iteration is the zero-based index of the running iteration.
	Iteration int

	loadConfig ConfigLoader
	cfgOnce    sync.Once
	cfg        *config.Store
	cfgErr     error
}

// NewRunContext creates a run with a fresh ID. Config is read on first use.
func NewRunContext(load ConfigLoader) *RunContext {
	return &RunContext{
		ID:         uuid.NewString(),
		Lock:       &hook.Lock{},
		State:      ParsingArgs,
		loadConfig: load,
	}
}

// Config returns the configuration snapshot, loading it once.
func (rc *RunContext) Config(ctx context.Context) (*config.Store, error) {
	rc.cfgOnce.Do(func() {
		if rc.loadConfig == nil {
			rc.cfg, rc.cfgErr = config.Load(ctx)
			return
		}
		rc.cfg, rc.cfgErr = rc.loadConfig(ctx)
	})
	return rc.cfg, rc.cfgErr
}
