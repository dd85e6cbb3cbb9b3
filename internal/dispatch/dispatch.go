package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/exitcode"
	"github.com/rnwolfe/gh/internal/git"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/hook"
	"github.com/rnwolfe/gh/internal/logging"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/plugin"
	"github.com/rnwolfe/gh/internal/runner"
	"github.com/rnwolfe/gh/internal/ui"
)

// APIFactory builds the remote API client for a configuration. A non-empty
// token overrides the configured credentials.
type APIFactory func(ctx context.Context, cfg *config.Store, token string) (github.API, error)

// Dispatcher wires the pipeline stages together.
type Dispatcher struct {
	Registry   *command.Registry
	LoadConfig ConfigLoader
	NewAPI     APIFactory
	Runner     runner.Runner
	Out        *ui.Printer
	In         io.Reader
	// LogFile receives a JSON copy of the log. Empty disables it.
	LogFile string
	// Interactive reports whether stdin and stdout are terminals.
	Interactive bool
}

// Run executes argv and returns the process exit code.
func (d *Dispatcher) Run(ctx context.Context, argv []string) int {
	_, code := d.Execute(ctx, argv)
	return code
}

// Execute runs argv and returns the run's context alongside the exit code.
func (d *Dispatcher) Execute(ctx context.Context, argv []string) (rc *RunContext, code int) {
	rc = NewRunContext(d.LoadConfig)
	out := d.printer()

	det, err := options.Detect(argv)
	var console io.Writer
	if out.Err != os.Stderr {
		console = out.Err
	}
	logger := logging.New(logging.Options{
		Verbose: det.Verbose,
		Debug:   det.Debug,
		LogFile: d.LogFile,
		Console: console,
	})
	defer logger.Close()
	log := logger.With().Str("run_id", rc.ID).Logger()
	ctx = log.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("command panicked")
			out.Error(fmt.Sprintf("internal error: %v", r))
			rc.State = Failed
			code = exitcode.Failure
		}
	}()

	if err != nil {
		return rc, d.fail(rc, out, log, err)
	}
	if det.NoColor || os.Getenv("NO_COLOR") != "" {
		ui.SetColor(false)
	}

	d.transition(rc, log, ResolvingCommand)
	cfg, err := rc.Config(ctx)
	if err != nil {
		return rc, d.fail(rc, out, log, err)
	}
	if !cfg.GetBool("color") {
		ui.SetColor(false)
	}

	loader := &plugin.Loader{
		Dir:    pluginsDir(cfg),
		Config: cfg,
		Runner: d.Runner,
		Log:    logging.Component(log, "plugin"),
	}
	d.Registry.SetLoader(loader)

	mod, err := d.Registry.Resolve(ctx, det.Command)
	if err != nil {
		return rc, d.fail(rc, out, log, err)
	}
	if mod.Kind == command.KindPlugin {
		rc.ActivePlugin = mod.Name()
		log = log.With().Str("plugin", rc.ActivePlugin).Logger()
	}
	desc := mod.Descriptor()

	d.transition(rc, log, NormalizingOptions)
	opts, err := options.Parse(desc, det.Argv)
	if err != nil {
		return rc, d.fail(rc, out, log, err)
	}
	opts.Command = desc.Name

	d.transition(rc, log, DerivingContext)
	gitClient := git.New(d.Runner)
	norm := &options.Normalizer{Config: cfg, Git: gitClient}
	var payload options.Payloader
	if p, ok := mod.Command.(options.Payloader); ok {
		payload = p
	}
	if err := norm.Normalize(ctx, desc, opts, payload); err != nil {
		return rc, d.fail(rc, out, log, err)
	}

	engine := &hook.Engine{
		Table:        &hook.Table{Config: cfg, Plugins: loader},
		Runner:       d.Runner,
		Lock:         rc.Lock,
		Signature:    cfg.GetString("signature"),
		RunID:        rc.ID,
		Plugin:       rc.ActivePlugin,
		Contributors: loader.Contributors(),
	}
	env := &command.Env{
		Config: cfg,
		NewAPI: func(ctx context.Context, token string) (github.API, error) {
			if d.NewAPI == nil {
				return nil, errors.New("no API client configured")
			}
			return d.NewAPI(ctx, cfg, token)
		},
		Git:         gitClient,
		Runner:      d.Runner,
		Hooks:       engine,
		Out:         out,
		In:          d.In,
		Log:         logging.Component(log, desc.Name),
		Registry:    d.Registry,
		Plugins:     loader.Infos,
		Interactive: d.Interactive,
	}

	code = d.iterate(ctx, rc, mod, env, desc, opts, log)
	if code == exitcode.Success {
		d.transition(rc, log, Done)
	}
	return rc, code
}

// iterate runs the body once per value of the iterative flag, each on its
// own clone of the base options. Warnings abort only their iteration.
func (d *Dispatcher) iterate(ctx context.Context, rc *RunContext, mod command.Module, env *command.Env, desc options.Descriptor, base *options.Options, log zerolog.Logger) int {
	values := []string{""}
	if desc.Iterative != "" {
		values = base.List(desc.Iterative)
	}

	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return d.fail(rc, env.Out, log, err)
		}
		rc.Iteration = i
		d.transition(rc, log, Executing)

		opts := base.Clone()
		if desc.Iterative != "" {
			opts.Iterate(desc.Iterative, v)
		}

		err := mod.Command.Run(ctx, env, opts)
		switch {
		case err == nil:
		case command.IsWarning(err):
			log.Info().Err(err).Int("iteration", i).Str("value", v).Msg("iteration aborted")
			env.Out.Warn(err.Error())
		default:
			return d.fail(rc, env.Out, log, err)
		}
	}
	return exitcode.Success
}

func (d *Dispatcher) fail(rc *RunContext, out *ui.Printer, log zerolog.Logger, err error) int {
	from := rc.State
	rc.State = Failed
	ev := log.Error()
	if command.IsFatal(err) || errors.Is(err, command.ErrCommandNotFound) || errors.Is(err, options.ErrParse) {
		ev = log.Debug()
	}
	ev.Err(err).Str("state", from.String()).Msg("run failed")
	out.Error(err.Error())
	return exitcode.Failure
}

func (d *Dispatcher) transition(rc *RunContext, log zerolog.Logger, to State) {
	log.Debug().Str("from", rc.State.String()).Str("to", to.String()).Int("iteration", rc.Iteration).Msg("state")
	rc.State = to
}

func (d *Dispatcher) printer() *ui.Printer {
	if d.Out != nil {
		return d.Out
	}
	return ui.NewPrinter()
}

func pluginsDir(cfg *config.Store) string {
	if dir := cfg.GetString("plugins_dir"); dir != "" {
		return dir
	}
	return cfg.Paths().PluginsDir
}
