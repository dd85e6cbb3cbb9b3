package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/ui"
)

func typed(s string) []tea.KeyMsg {
	var out []tea.KeyMsg
	for _, r := range s {
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func press(p *Picker, msgs ...tea.KeyMsg) {
	for _, m := range msgs {
		p.Update(m)
	}
}

func chosenNumber(p *Picker) int {
	if p.chosen == nil {
		return 0
	}
	return p.chosen.(pullItem).pr.Number
}

func TestPickerKeys(t *testing.T) {
	tests := []struct {
		name         string
		keys         []tea.KeyMsg
		wantNumber   int
		wantCanceled bool
		wantQuery    string
	}{
		{name: "enter takes first", keys: []tea.KeyMsg{key(tea.KeyEnter)}, wantNumber: 3},
		{name: "down then enter", keys: []tea.KeyMsg{key(tea.KeyDown), key(tea.KeyEnter)}, wantNumber: 12},
		{name: "ctrl-n and ctrl-p", keys: []tea.KeyMsg{key(tea.KeyCtrlN), key(tea.KeyCtrlP), key(tea.KeyEnter)}, wantNumber: 3},
		{name: "up at top stays", keys: []tea.KeyMsg{key(tea.KeyUp), key(tea.KeyEnter)}, wantNumber: 3},
		{name: "down past end stays", keys: []tea.KeyMsg{key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyEnter)}, wantNumber: 12},
		{name: "esc cancels", keys: []tea.KeyMsg{key(tea.KeyEsc)}, wantCanceled: true},
		{name: "ctrl-c cancels", keys: []tea.KeyMsg{key(tea.KeyCtrlC)}, wantCanceled: true},
		{name: "filter by branch", keys: append(typed("gist"), key(tea.KeyEnter)), wantNumber: 3, wantQuery: "gist"},
		{name: "filter by author", keys: append(typed("eduardo"), key(tea.KeyEnter)), wantNumber: 12, wantQuery: "eduardo"},
		{name: "no match picks nothing", keys: append(typed("zzz"), key(tea.KeyEnter)), wantQuery: "zzz"},
		{
			name:       "backspace widens",
			keys:       append(typed("gistx"), key(tea.KeyBackspace), key(tea.KeyBackspace), key(tea.KeyEnter)),
			wantNumber: 3,
			wantQuery:  "gis",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPicker(PullRequestItems(samplePulls()))
			press(p, tt.keys...)

			if got := chosenNumber(p); got != tt.wantNumber {
				t.Errorf("chosen = #%d, want #%d", got, tt.wantNumber)
			}
			if p.canceled != tt.wantCanceled {
				t.Errorf("canceled = %v, want %v", p.canceled, tt.wantCanceled)
			}
			if p.Query() != tt.wantQuery {
				t.Errorf("Query() = %q, want %q", p.Query(), tt.wantQuery)
			}
		})
	}
}

func TestPickerSpaceKey(t *testing.T) {
	p := NewPicker(PullRequestItems(samplePulls()))
	press(p, typed("fix")...)
	press(p, key(tea.KeySpace))
	press(p, typed("login")...)

	if p.Query() != "fix login" {
		t.Fatalf("Query() = %q", p.Query())
	}
	if len(p.filtered) != 1 || p.filtered[0].item.(pullItem).pr.Number != 12 {
		t.Fatalf("filtered = %+v", p.filtered)
	}
}

func TestPickerRanksTitleMatchFirst(t *testing.T) {
	prs := []github.PullRequest{
		{Number: 20, Title: "Refactor index", Author: "felix", HeadRef: "refactor-index"},
		{Number: 21, Title: "Fix typo", Author: "zeno", HeadRef: "fix-typo"},
	}
	p := NewPicker(PullRequestItems(prs))
	if p.filtered[0].item.(pullItem).pr.Number != 20 {
		t.Fatal("empty query should keep input order")
	}

	press(p, typed("fix")...)
	if len(p.filtered) != 2 {
		t.Fatalf("want 2 matches, got %d", len(p.filtered))
	}
	if got := p.filtered[0].item.(pullItem).pr.Number; got != 21 {
		t.Fatalf("best match = #%d, want #21", got)
	}
}

func TestPickerScrollKeepsCursorVisible(t *testing.T) {
	var prs []github.PullRequest
	for i := 1; i <= 20; i++ {
		prs = append(prs, github.PullRequest{Number: i, Title: fmt.Sprintf("Change %d", i)})
	}
	p := NewPicker(PullRequestItems(prs), WithHeight(5))

	for range 7 {
		press(p, key(tea.KeyDown))
	}
	if p.cursor != 7 || p.offset != 3 {
		t.Fatalf("after 7 downs cursor=%d offset=%d, want 7/3", p.cursor, p.offset)
	}

	for range 6 {
		press(p, key(tea.KeyUp))
	}
	if p.cursor != 1 || p.offset != 1 {
		t.Fatalf("after 6 ups cursor=%d offset=%d, want 1/1", p.cursor, p.offset)
	}

	press(p, typed("1")...)
	if p.cursor != 0 || p.offset != 0 {
		t.Fatal("filtering should reset the cursor")
	}
}

func TestPickerWindowSizeLimitsRows(t *testing.T) {
	p := NewPicker(PullRequestItems(samplePulls()), WithHeight(10))
	if got := p.visibleHeight(); got != 10 {
		t.Fatalf("visibleHeight() = %d, want 10", got)
	}

	p.Update(tea.WindowSizeMsg{Width: 100, Height: 12})
	if got := p.visibleHeight(); got != 6 {
		t.Fatalf("visibleHeight() = %d, want 6", got)
	}

	p.Update(tea.WindowSizeMsg{Width: 100, Height: 4})
	if got := p.visibleHeight(); got != 3 {
		t.Fatalf("visibleHeight() = %d, want the minimum of 3", got)
	}
}

func TestPickerView(t *testing.T) {
	ui.SetColor(false)
	p := NewPicker(PullRequestItems(samplePulls()), WithTitle("Pull requests"), WithPrompt("fetch> "))

	view := p.View()
	for _, want := range []string{"Pull requests", "fetch> ", "#3", "Add gist forking", "zeno · gist-fork", "2/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	press(p, typed("zzz")...)
	view = p.View()
	if !strings.Contains(view, "No matches") || !strings.Contains(view, "0/2") {
		t.Errorf("view after failed filter:\n%s", view)
	}
}
