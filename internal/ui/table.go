package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Table renders rows as left-aligned columns separated by two spaces. The
// last column is truncated to fit the terminal width when stdout is a
// terminal.
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	cols := len(headers)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	widths := make([]int, cols)
	measure := func(r []string) {
		for i, cell := range r {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(r)
	}

	if max := terminalWidth(); max > 0 && cols > 0 {
		used := 0
		for _, w := range widths[:cols-1] {
			used += w + 2
		}
		if avail := max - used; avail > 8 && widths[cols-1] > avail {
			widths[cols-1] = avail
		}
	}

	if len(headers) > 0 {
		p.Puts(formatRow(headers, widths, Muted))
	}
	for _, r := range rows {
		p.Puts(formatRow(r, widths, lipgloss.NewStyle()))
	}
}

func formatRow(cells []string, widths []int, style lipgloss.Style) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			if lipgloss.Width(cell) > w {
				cell = runewidth.Truncate(cell, w, "…")
			}
			b.WriteString(style.Render(cell))
			break
		}
		pad := w - lipgloss.Width(cell)
		b.WriteString(style.Render(cell))
		b.WriteString(strings.Repeat(" ", pad+2))
	}
	return strings.TrimRight(b.String(), " ")
}

// terminalWidth returns the stdout width, or 0 when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
