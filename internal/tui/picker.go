// Package tui holds gh's interactive terminal pickers.
package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/rnwolfe/gh/internal/ui"
)

// Item is a selectable picker row.
type Item interface {
	// FilterValue returns the string used for fuzzy matching.
	FilterValue() string
	Title() string
	// Description is optional secondary text.
	Description() string
}

// PickerOption configures a Picker.
type PickerOption func(*Picker)

// WithTitle sets the heading displayed above the list.
func WithTitle(title string) PickerOption {
	return func(p *Picker) { p.title = title }
}

// WithPrompt sets the query prompt.
func WithPrompt(prompt string) PickerOption {
	return func(p *Picker) { p.prompt = prompt }
}

// WithHeight caps the number of visible rows (0 = fit terminal).
func WithHeight(h int) PickerOption {
	return func(p *Picker) { p.height = h }
}

// Picker is a fuzzy-filtered list selector.
type Picker struct {
	title  string
	prompt string
	height int

	items    []Item
	filtered []scored
	query    []rune
	cursor   int
	offset   int
	chosen   Item
	canceled bool

	termWidth  int
	termHeight int
}

type scored struct {
	item  Item
	score int
}

// NewPicker creates a Picker over items.
func NewPicker(items []Item, opts ...PickerOption) *Picker {
	p := &Picker{
		prompt:     "> ",
		height:     10,
		items:      items,
		termWidth:  80,
		termHeight: 24,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.applyFilter()
	return p
}

// Run shows a picker on the terminal and returns the chosen item, or nil
// when the user cancels.
func Run(items []Item, opts ...PickerOption) (Item, error) {
	p := NewPicker(items, opts...)
	m, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	result := m.(*Picker)
	if result.canceled {
		return nil, nil
	}
	return result.chosen, nil
}

// IsTTY reports whether stdin is a terminal.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Query returns the current filter text.
func (p *Picker) Query() string { return string(p.query) }

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.termWidth = msg.Width
		p.termHeight = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.canceled = true
			return p, tea.Quit
		case tea.KeyEnter:
			if len(p.filtered) > 0 {
				p.chosen = p.filtered[p.cursor].item
			}
			return p, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			p.move(-1)
		case tea.KeyDown, tea.KeyCtrlN:
			p.move(1)
		case tea.KeyBackspace:
			if len(p.query) > 0 {
				p.query = p.query[:len(p.query)-1]
				p.applyFilter()
			}
		case tea.KeyRunes, tea.KeySpace:
			p.query = append(p.query, msg.Runes...)
			if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
				p.query = append(p.query, ' ')
			}
			p.applyFilter()
		}
	}
	return p, nil
}

func (p *Picker) View() string {
	var b strings.Builder

	if p.title != "" {
		b.WriteString("  " + ui.Title.Render(p.title) + "\n\n")
	}

	prompt := lipgloss.NewStyle().Foreground(ui.Yellow).Bold(true).Render(p.prompt)
	b.WriteString("  " + prompt + string(p.query) + lipgloss.NewStyle().Foreground(ui.Yellow).Render("▎") + "\n\n")

	if len(p.filtered) == 0 {
		b.WriteString("  " + ui.Muted.Render("No matches") + "\n")
	} else {
		end := min(p.offset+p.visibleHeight(), len(p.filtered))
		for i := p.offset; i < end; i++ {
			b.WriteString(p.renderItem(p.filtered[i].item, i == p.cursor) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(ui.Muted.Render(fmt.Sprintf("  %d/%d · ↑↓ navigate · enter select · esc cancel", len(p.filtered), len(p.items))) + "\n")
	return b.String()
}

func (p *Picker) move(delta int) {
	next := p.cursor + delta
	if next < 0 || next >= len(p.filtered) {
		return
	}
	p.cursor = next
	vis := p.visibleHeight()
	switch {
	case p.cursor < p.offset:
		p.offset = p.cursor
	case p.cursor >= p.offset+vis:
		p.offset = p.cursor - vis + 1
	}
}

func (p *Picker) visibleHeight() int {
	h := p.height
	if h <= 0 || h > p.termHeight-6 {
		h = p.termHeight - 6
	}
	return max(h, 3)
}

func (p *Picker) applyFilter() {
	p.filtered = p.filtered[:0]
	q := string(p.query)
	for _, item := range p.items {
		if ok, sc := FuzzyMatch(q, item.FilterValue()); ok {
			p.filtered = append(p.filtered, scored{item: item, score: sc})
		}
	}
	if q != "" {
		sortScored(p.filtered)
	}
	p.cursor = 0
	p.offset = 0
}

func (p *Picker) renderItem(item Item, selected bool) string {
	pointer := "  "
	title := lipgloss.NewStyle()
	if selected {
		pointer = ui.Accent.Render(ui.IconArrow + " ")
		title = title.Foreground(ui.Yellow).Bold(true)
	}
	line := "  " + pointer + title.Render(item.Title())
	if desc := item.Description(); desc != "" {
		line += "  " + ui.Muted.Render(desc)
	}
	return line
}

// sortScored orders by score, best first, keeping input order on ties.
func sortScored(items []scored) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
}
