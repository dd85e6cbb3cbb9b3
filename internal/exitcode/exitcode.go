// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion, including runs that only
	// logged warnings.
	Success = 0

	// Failure indicates a fatal error: unknown command, bad flags, or an
	// unrecoverable command error.
	Failure = 1
)
