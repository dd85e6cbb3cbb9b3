package command

import (
	"errors"
	"fmt"

	"github.com/rnwolfe/gh/internal/github"
)

// ErrCommandNotFound is returned when no built-in or plugin matches.
var ErrCommandNotFound = errors.New("command not found")

// WarningError is a recoverable domain failure such as a missing issue or
// a rejected API call. The dispatcher logs it, aborts the current
// iteration and continues with the next one.
type WarningError struct {
	// Msg is shown to the user. Empty means Err.Error().
	Msg string
	Err error
}

func (w *WarningError) Error() string {
	if w.Msg != "" {
		return w.Msg
	}
	return w.Err.Error()
}

func (w *WarningError) Unwrap() error { return w.Err }

// FatalError stops the run with a non-zero exit code.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Warning wraps err as a warning. nil stays nil.
func Warning(err error) error {
	if err == nil {
		return nil
	}
	return &WarningError{Err: err}
}

// Warnf builds a warning from a format string.
func Warnf(format string, args ...any) error {
	return &WarningError{Err: fmt.Errorf(format, args...)}
}

// Fatal wraps err as fatal. nil stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Fatalf builds a fatal error from a format string.
func Fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// APIWarning classifies a remote API failure. Missing credentials are
// fatal; everything else becomes a warning whose message is the attempted
// action followed by the API's own message.
func APIWarning(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, github.ErrNotLoggedIn) {
		return Fatal(err)
	}
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, github.ErrNotFound) {
		return &WarningError{Msg: "can't find " + what, Err: err}
	}
	return &WarningError{Msg: what + ": " + github.ErrorMessage(err), Err: err}
}

// IsWarning reports whether err is a WarningError.
func IsWarning(err error) bool {
	var w *WarningError
	return errors.As(err, &w)
}

// IsFatal reports whether err is a FatalError.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}
