package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rnwolfe/gh/internal/github"
)

func samplePulls() []github.PullRequest {
	return []github.PullRequest{
		{Number: 3, Title: "Add gist forking", Author: "zeno", HeadRef: "gist-fork"},
		{Number: 12, Title: "Fix login flow", Author: "eduardo", HeadRef: "fix-login"},
	}
}

func TestPullRequestItems(t *testing.T) {
	items := PullRequestItems(samplePulls())
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
	if !strings.Contains(items[1].Title(), "#12") || !strings.Contains(items[1].Title(), "Fix login flow") {
		t.Fatalf("title should carry number and title, got %q", items[1].Title())
	}
	if items[1].Description() != "eduardo · fix-login" {
		t.Fatalf("unexpected description %q", items[1].Description())
	}
}

func TestPickerFiltersPullsByAuthor(t *testing.T) {
	p := NewPicker(PullRequestItems(samplePulls()))
	for _, r := range "eduardo" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if len(p.filtered) != 1 {
		t.Fatalf("want 1 match, got %d", len(p.filtered))
	}
	model, _ := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chosen := model.(*Picker).chosen.(pullItem)
	if chosen.pr.Number != 12 {
		t.Fatalf("want #12, got #%d", chosen.pr.Number)
	}
}
