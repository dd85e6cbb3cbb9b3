package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// gh's color palette.
var (
	Green  = lipgloss.Color("#2EA043")
	Red    = lipgloss.Color("#F85149")
	Yellow = lipgloss.Color("#D29922")
	Blue   = lipgloss.Color("#58A6FF")
	Purple = lipgloss.Color("#A371F7")
	Dim    = lipgloss.Color("#6E7681")
	Bright = lipgloss.Color("#F0F6FC")

	// Semantic styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Bright)

	Subtitle = lipgloss.NewStyle().
			Foreground(Blue)

	Success = lipgloss.NewStyle().
		Foreground(Green)

	Error = lipgloss.NewStyle().
		Foreground(Red)

	Warning = lipgloss.NewStyle().
		Foreground(Yellow)

	Info = lipgloss.NewStyle().
		Foreground(Blue)

	Muted = lipgloss.NewStyle().
		Foreground(Dim)

	Accent = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	// Issue and pull request states.
	StateOpen   = lipgloss.NewStyle().Foreground(Green)
	StateClosed = lipgloss.NewStyle().Foreground(Red)
	StateMerged = lipgloss.NewStyle().Foreground(Purple)
)

// Icon constants.
const (
	IconWarn  = "⚠ "
	IconError = "✗ "
	IconOk    = "✓ "
	IconArrow = "→"
	IconDot   = "·"
)

// SetColor enables or disables styled output for the whole process.
func SetColor(enabled bool) {
	if enabled {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// State renders an issue or pull request state in its color.
func State(state string) string {
	switch state {
	case "open":
		return StateOpen.Render(state)
	case "merged":
		return StateMerged.Render(state)
	default:
		return StateClosed.Render(state)
	}
}
