package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rnwolfe/gh/internal/runner"
)

// ProtocolVersion is the current plugin protocol version.
const ProtocolVersion = "1"

// InvocationType identifies what kind of invocation is being made.
type InvocationType string

const (
	// InvocationCommand runs the plugin's command with the terminal attached.
	InvocationCommand InvocationType = "command"
	// InvocationSetup asks for extra hook template fields.
	InvocationSetup InvocationType = "setup"
	// InvocationPayload asks the plugin to map positional arguments to flags.
	InvocationPayload InvocationType = "payload"
)

// Invocation is the JSON envelope sent to plugin entrypoints on stdin.
type Invocation struct {
	ProtocolVersion string         `json:"protocol_version"`
	Type            InvocationType `json:"type"`
	Command         string         `json:"command,omitempty"`
	Stage           string         `json:"stage,omitempty"`
	Args            []string       `json:"args,omitempty"`
	Options         map[string]any `json:"options,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	RunID           string         `json:"run_id,omitempty"`
}

// Response is what setup and payload invocations print on stdout.
type Response struct {
	Context map[string]any `json:"context,omitempty"`
	Options map[string]any `json:"options,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// CaptureTimeout bounds setup and payload invocations. Command invocations
// own the terminal and run until the plugin exits.
var CaptureTimeout = 30 * time.Second

// EnvPlugin names the running plugin inside its own subprocess.
const EnvPlugin = "GH_PLUGIN"

// exec sends inv to the plugin's entrypoint. Command invocations inherit
// the terminal; the others are captured and their stdout decoded.
func (h *Handle) exec(ctx context.Context, inv Invocation) (*Response, error) {
	inv.ProtocolVersion = ProtocolVersion
	payload, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("serializing invocation: %w", err)
	}

	c := runner.Cmd{
		Name:        filepath.Join(h.dir, h.manifest.Entrypoint()),
		Stdin:       bytes.NewReader(payload),
		Env:         h.environ(),
		Interactive: inv.Type == InvocationCommand,
	}
	if !c.Interactive {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, CaptureTimeout)
		defer cancel()
	}
	res, err := h.runner.Run(ctx, c)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("plugin %s: timed out after %s", h.Name(), CaptureTimeout)
		}
		return nil, fmt.Errorf("plugin %s: %w", h.Name(), err)
	}
	if c.Interactive {
		return nil, nil
	}

	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return &Response{}, nil
	}
	var resp Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return nil, fmt.Errorf("plugin %s: parsing response: %w", h.Name(), err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("plugin %s: %s", h.Name(), resp.Error)
	}
	return &resp, nil
}

// environ is appended to gh's own environment. Plugins run with the same
// privileges as gh.
func (h *Handle) environ() []string {
	return []string{
		EnvPlugin + "=" + h.Name(),
		"GH_PLUGIN_DIR=" + h.dir,
	}
}
