package tui

import "unicode"

// FuzzyMatch reports whether every rune of query appears in target in
// order, ignoring case, and scores the match. Consecutive runs, a match on
// the first rune and matches after a word separator score higher.
func FuzzyMatch(query, target string) (bool, int) {
	if query == "" {
		return true, 0
	}

	q := []rune(query)
	qi, score, run := 0, 0, 0
	prev := rune(-1)
	for i, r := range target {
		if qi == len(q) {
			break
		}
		if unicode.ToLower(r) != unicode.ToLower(q[qi]) {
			run = 0
			prev = r
			continue
		}
		qi++
		run++
		score += run
		switch {
		case i == 0:
			score += 3
		case isSeparator(prev):
			score += 2
		}
		prev = r
	}
	return qi == len(q), score
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '/', '-', '_', '.', '#', ':':
		return true
	}
	return false
}
