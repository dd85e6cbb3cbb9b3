package tui

import (
	"fmt"

	"github.com/rnwolfe/gh/internal/github"
)

// pullItem adapts a pull request to the picker.
type pullItem struct {
	pr github.PullRequest
}

func (p pullItem) FilterValue() string {
	return fmt.Sprintf("#%d %s %s %s", p.pr.Number, p.pr.Title, p.pr.Author, p.pr.HeadRef)
}

func (p pullItem) Title() string {
	return fmt.Sprintf("#%-5d %s", p.pr.Number, p.pr.Title)
}

func (p pullItem) Description() string {
	return p.pr.Author + " · " + p.pr.HeadRef
}

// PullRequestItems wraps prs as picker items.
func PullRequestItems(prs []github.PullRequest) []Item {
	items := make([]Item, len(prs))
	for i, pr := range prs {
		items[i] = pullItem{pr: pr}
	}
	return items
}

// PickPullRequest lets the user choose one of prs and returns its number,
// or 0 when the picker was cancelled.
func PickPullRequest(prs []github.PullRequest) (int, error) {
	chosen, err := Run(PullRequestItems(prs), WithTitle("Pull requests"), WithPrompt("fetch> "))
	if err != nil || chosen == nil {
		return 0, err
	}
	return chosen.(pullItem).pr.Number, nil
}
