package tui

import "testing"

const loginPull = "#12 Fix login flow eduardo fix-login"

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query, target string
		want          bool
	}{
		{"", loginPull, true},
		{"login", loginPull, true},
		{"#12", loginPull, true},
		{"efl", loginPull, true},
		{"FIX", loginPull, true},
		{"fix-login", loginPull, true},
		{"logout", loginPull, false},
		{"21#", loginPull, false},
		{"a", "", false},
		{"é", "café-menu", true},
		{"É", "café-menu", true},
		{"ü", "cafe", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got, _ := FuzzyMatch(tt.query, tt.target); got != tt.want {
				t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.query, tt.target, got, tt.want)
			}
		})
	}
}

func TestFuzzyMatchEmptyQueryScoresZero(t *testing.T) {
	if _, score := FuzzyMatch("", loginPull); score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
}

func TestFuzzyMatchScoring(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		better, worse string
	}{
		{"consecutive run", "fix", "fix-login", "faixax"},
		{"first rune", "f", "fix", "afx"},
		{"after space", "l", "fix login", "fixlogin"},
		{"after hash", "1", "#12", "a12"},
		{"after slash", "d", "renovate/deps", "renovatedeps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, better := FuzzyMatch(tt.query, tt.better)
			_, worse := FuzzyMatch(tt.query, tt.worse)
			if better <= worse {
				t.Errorf("%q in %q scored %d, not above %d for %q", tt.query, tt.better, better, worse, tt.worse)
			}
		})
	}
}
