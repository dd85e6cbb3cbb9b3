package ui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// IsStdoutTTY returns true when stdout is connected to a terminal.
func IsStdoutTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// RenderMarkdown renders a complete markdown string for terminal output and
// returns the styled result. Returns the original string on any error or
// when stdout is not a terminal.
func RenderMarkdown(md string) string {
	if !IsStdoutTTY() {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Markdown prints a markdown body, rendered when stdout is a terminal.
func (p *Printer) Markdown(md string) {
	if md == "" {
		return
	}
	if p.Out == os.Stdout {
		p.Puts(RenderMarkdown(md))
		return
	}
	p.Puts(md)
}
