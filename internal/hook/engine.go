package hook

import (
	"context"
	"maps"

	"github.com/rs/zerolog"

	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/runner"
)

// Contributor is a plugin that adds template fields before its hooks run.
type Contributor interface {
	Name() string
	Setup(ctx context.Context, path string, stage Stage, data map[string]any) (map[string]any, error)
}

// Engine renders and executes hooks around command bodies.
type Engine struct {
	Table     *Table
	Runner    runner.Runner
	Lock      *Lock
	Signature string
	RunID     string
	// Plugin names the plugin resolved as the command, if any.
	Plugin       string
	Contributors []Contributor
}

// Before runs the before hooks for path. It does nothing while the lock
// is held or hooks are disabled.
func (e *Engine) Before(ctx context.Context, path string, opts *options.Options) error {
	if !e.active(opts) {
		return nil
	}
	return e.run(ctx, path, StageBefore, opts)
}

// After runs the after hooks for path. It does nothing while the lock is
// held or hooks are disabled.
func (e *Engine) After(ctx context.Context, path string, opts *options.Options) error {
	if !e.active(opts) {
		return nil
	}
	return e.run(ctx, path, StageAfter, opts)
}

// Invoke runs before hooks, body, then after hooks, holding the lock for
// the whole sequence. A nested Invoke sees the lock and runs only its
// body. After hooks are skipped when body fails.
func (e *Engine) Invoke(ctx context.Context, path string, opts *options.Options, body func(context.Context) error) error {
	if !e.active(opts) || !e.Lock.TryAcquire() {
		return body(ctx)
	}
	defer e.Lock.Release()

	if err := e.run(ctx, path, StageBefore, opts); err != nil {
		return err
	}
	if err := body(ctx); err != nil {
		return err
	}
	return e.run(ctx, path, StageAfter, opts)
}

func (e *Engine) active(opts *options.Options) bool {
	if e == nil || e.Lock == nil {
		return false
	}
	if opts != nil && !opts.Hooks {
		return false
	}
	return !e.Lock.Held()
}

// run executes every hook for one stage. Individual failures are logged at
// debug level; only context cancellation is returned.
func (e *Engine) run(ctx context.Context, path string, stage Stage, opts *options.Options) error {
	cmds := e.Table.Commands(path, stage)
	if len(cmds) == 0 {
		return nil
	}
	logger := zerolog.Ctx(ctx).With().
		Str("component", "hook").
		Str("path", path).
		Str("stage", string(stage)).
		Logger()

	data := e.templateData(ctx, path, stage, opts, logger)
	for _, tmpl := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		script, err := Render(tmpl, data)
		if err != nil {
			logger.Debug().Err(err).Msg("hook skipped")
			continue
		}
		if script == "" {
			continue
		}
		logger.Debug().Str("script", script).Msg("running hook")
		if err := runner.Shell(ctx, e.Runner, script); err != nil {
			logger.Debug().Err(err).Str("script", script).Msg("hook failed")
		}
	}
	return nil
}

func (e *Engine) templateData(ctx context.Context, path string, stage Stage, opts *options.Options, logger zerolog.Logger) map[string]any {
	data := map[string]any{
		"signature": e.Signature,
		"run_id":    e.RunID,
	}
	if e.Plugin != "" {
		data["plugin"] = e.Plugin
	}
	if opts != nil {
		data["options"] = opts.TemplateData()
	}
	for _, c := range e.Contributors {
		extra, err := c.Setup(ctx, path, stage, maps.Clone(data))
		if err != nil {
			logger.Debug().Err(err).Str("plugin", c.Name()).Msg("hook setup failed")
			continue
		}
		maps.Copy(data, extra)
	}
	return data
}
