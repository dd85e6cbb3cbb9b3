package hook

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
)

// Render expands a hook template such as "echo {{options.number}}".
// Unresolved placeholders render as empty strings. Output is not HTML
// escaped since it is fed to a shell. The result is trimmed.
func Render(tmpl string, data map[string]any) (string, error) {
	out, err := mustache.RenderRaw(tmpl, true, data)
	if err != nil {
		return "", fmt.Errorf("rendering hook %q: %w", tmpl, err)
	}
	return strings.TrimSpace(out), nil
}
