package plugin

import (
	"context"
	"fmt"
	"sort"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/hook"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/runner"
)

// Handle is a loaded plugin. It runs as a command, may interpret
// positional arguments, and may contribute hook template fields.
type Handle struct {
	manifest Manifest
	dir      string
	runner   runner.Runner
}

var (
	_ command.Command   = (*Handle)(nil)
	_ command.Payloader = (*Handle)(nil)
	_ hook.Contributor  = (*Handle)(nil)
)

// Name returns the plugin name.
func (h *Handle) Name() string { return h.manifest.Plugin.Name }

// Manifest returns the parsed manifest.
func (h *Handle) Manifest() Manifest { return h.manifest }

// Dir returns the plugin directory.
func (h *Handle) Dir() string { return h.dir }

// Describe implements command.Command.
func (h *Handle) Describe() options.Descriptor { return h.manifest.Details }

// Run hands the parsed options to the plugin entrypoint inside the hook
// sequence for <plugin>.<action>.
func (h *Handle) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	desc := h.Describe()
	action := opts.Action(desc, "")
	path := h.Name()
	if action != "" {
		path += "." + action
	}

	var runID string
	if env != nil && env.Hooks != nil {
		runID = env.Hooks.RunID
	}

	body := func(ctx context.Context) error {
		_, err := h.exec(ctx, Invocation{
			Type:    InvocationCommand,
			Command: path,
			Args:    opts.Argv.Positional(),
			Options: opts.TemplateData(),
			RunID:   runID,
		})
		if err != nil {
			return command.Warning(err)
		}
		return nil
	}
	if env == nil || env.Hooks == nil {
		return body(ctx)
	}
	return env.Hooks.Invoke(ctx, path, opts, body)
}

// Payload asks the plugin to turn positional arguments into flag values.
// Plugins that did not declare payload support are skipped.
func (h *Handle) Payload(positional []string, opts *options.Options) error {
	if !h.manifest.Details.Payload {
		return nil
	}
	resp, err := h.exec(context.Background(), Invocation{
		Type:    InvocationPayload,
		Command: h.Name(),
		Args:    positional,
		Options: opts.TemplateData(),
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(resp.Options))
	for name := range resp.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec, ok := h.manifest.Details.Options[name]
		if !ok {
			return fmt.Errorf("plugin %s: payload set undeclared option %q", h.Name(), name)
		}
		v, err := coerce(spec.Type, resp.Options[name])
		if err != nil {
			return fmt.Errorf("plugin %s: option %q: %w", h.Name(), name, err)
		}
		opts.Set(name, v)
	}
	return nil
}

// Setup implements hook.Contributor. Plugins without setup_hooks add
// nothing and are never spawned.
func (h *Handle) Setup(ctx context.Context, path string, stage hook.Stage, data map[string]any) (map[string]any, error) {
	if !h.manifest.Plugin.SetupHooks {
		return nil, nil
	}
	run, _ := data["run_id"].(string)
	resp, err := h.exec(ctx, Invocation{
		Type:    InvocationSetup,
		Command: path,
		Stage:   string(stage),
		Context: data,
		RunID:   run,
	})
	if err != nil {
		return nil, err
	}
	return resp.Context, nil
}

// coerce converts a decoded JSON value to the Go type options expects for t.
func coerce(t options.Type, v any) (any, error) {
	switch t {
	case options.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		return b, nil
	case options.TypeNumber:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return int(f), nil
	case options.TypeList:
		switch x := v.(type) {
		case []any:
			out := make([]string, 0, len(x))
			for _, e := range x {
				out = append(out, fmt.Sprint(e))
			}
			return out, nil
		case string:
			return []string{x}, nil
		}
		return nil, fmt.Errorf("want list, got %T", v)
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	}
}
