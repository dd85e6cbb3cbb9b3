// Package logging builds gh's diagnostic logger.
//
// Diagnostics go to stderr (console format on a TTY, JSON otherwise) and to
// a rotating JSON file under the state directory. User-facing output does
// not go through here; see package ui.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB   = 5
	logMaxBackups  = 3
	logMaxAgeDays  = 14
	redactedValue  = "[REDACTED]"
	componentField = "component"
)

// Options controls logger construction.
type Options struct {
	Verbose bool
	Debug   bool
	// LogFile is the rotating log file path. Empty disables file logging.
	LogFile string
	// Console overrides the stderr writer. Used by tests.
	Console io.Writer
}

// Logger is a zerolog.Logger plus the file writer that must be closed on
// shutdown.
type Logger struct {
	zerolog.Logger
	file io.Closer
}

// New builds a logger. A log file that cannot be created is not an error:
// the logger falls back to console-only output.
func New(opts Options) *Logger {
	console := opts.Console
	if console == nil {
		console = selectOutput()
	}

	var (
		writer io.Writer = console
		closer io.Closer
	)
	if opts.LogFile != "" {
		if lj, err := fileWriter(opts.LogFile); err == nil {
			closer = lj
			writer = zerolog.MultiLevelWriter(console, NewRedactingWriter(lj))
		}
	}

	zl := zerolog.New(writer).
		Level(selectLevel(opts.Verbose, opts.Debug)).
		With().Timestamp().Logger()
	return &Logger{Logger: zl, file: closer}
}

// Component returns a child logger tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(componentField, name).Logger()
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func selectLevel(verbose, debug bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case verbose:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// selectOutput picks the console writer for a color TTY and JSON otherwise.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

func fileWriter(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}, nil
}

// tokenPatterns match GitHub credentials that must never reach the log file.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`),
	regexp.MustCompile(`(?i)(bearer|token)\s+[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)"(github_token|token|authorization)":"[^"]*"`),
}

// RedactingWriter scrubs GitHub tokens from each write.
type RedactingWriter struct {
	w io.Writer
}

// NewRedactingWriter wraps w.
func NewRedactingWriter(w io.Writer) *RedactingWriter {
	return &RedactingWriter{w: w}
}

// Write implements io.Writer. It reports len(p) on success so callers do
// not see a short write when redaction shrinks the payload.
func (r *RedactingWriter) Write(p []byte) (int, error) {
	out := Redact(string(p))
	if _, err := io.WriteString(r.w, out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Redact replaces every known credential pattern in s.
func Redact(s string) string {
	for _, re := range tokenPatterns[:3] {
		s = re.ReplaceAllString(s, redactedValue)
	}
	return tokenPatterns[3].ReplaceAllString(s, `"$1":"`+redactedValue+`"`)
}
