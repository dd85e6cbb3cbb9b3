package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		debug   bool
		want    zerolog.Level
	}{
		{"default", false, false, zerolog.WarnLevel},
		{"verbose", true, false, zerolog.InfoLevel},
		{"debug", false, true, zerolog.DebugLevel},
		{"debug wins", true, true, zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectLevel(tt.verbose, tt.debug))
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Console: &buf})
	defer l.Close()

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWritesRedactedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "gh.log")
	var buf bytes.Buffer
	l := New(Options{Debug: true, LogFile: path, Console: &buf})

	token := "ghp_" + strings.Repeat("a", 36)
	l.Debug().Str("header", "token "+token).Msg("request")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), token)
	assert.Contains(t, string(data), redactedValue)
	// Console output is not redacted.
	assert.Contains(t, buf.String(), "request")
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"classic token", "using ghp_" + strings.Repeat("x", 36), "using " + redactedValue},
		{"fine grained", "github_pat_" + strings.Repeat("A", 40), redactedValue},
		{"json field", `{"github_token":"abc"}`, `{"github_token":"` + redactedValue + `"}`},
		{"plain", "nothing secret here", "nothing secret here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.in))
		})
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	cl := Component(l, "hook")
	cl.Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"hook"`)
}
