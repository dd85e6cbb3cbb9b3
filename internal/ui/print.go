// Package ui renders gh's terminal output: status lines, key/value pairs,
// tables and markdown bodies.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Printer writes styled output. Commands receive one through their
// environment so tests can capture what they print.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// NewPrinter returns a Printer bound to stdout and stderr.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Puts prints a line to stdout.
func (p *Printer) Puts(s string) {
	fmt.Fprintln(p.Out, s)
}

// Putsf prints a formatted line to stdout.
func (p *Printer) Putsf(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Ok prints a success message.
func (p *Printer) Ok(msg string) {
	fmt.Fprintln(p.Out, Success.Render(IconOk+msg))
}

// Okf prints a formatted success message.
func (p *Printer) Okf(format string, args ...any) {
	p.Ok(fmt.Sprintf(format, args...))
}

// Warn prints a warning message to stderr.
func (p *Printer) Warn(msg string) {
	fmt.Fprintln(p.Err, Warning.Render(IconWarn+msg))
}

// Error prints an error message to stderr.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.Err, Error.Bold(true).Render(IconError+msg))
}

// Inf prints an info message.
func (p *Printer) Inf(msg string) {
	fmt.Fprintln(p.Out, Info.Render("  "+msg))
}

// Header prints a section header.
func (p *Printer) Header(s string) {
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, Title.Render(s))
	fmt.Fprintln(p.Out, Muted.Render(strings.Repeat("─", len(s)+2)))
}

// Tip prints a helpful tip.
func (p *Printer) Tip(msg string) {
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, Muted.Render("  tip: "+msg))
}

// Kv prints a key-value pair as "key: value".
func (p *Printer) Kv(key, value string) {
	fmt.Fprintf(p.Out, "%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}
