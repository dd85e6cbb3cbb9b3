// Package runner executes local programs for gh: the git binary and
// user-configured hook snippets. Commands either run captured (stdout and
// stderr buffered and returned) or interactive (inheriting the terminal).
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one subprocess invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	// Env is appended to the current process environment.
	Env   []string
	Stdin io.Reader
	// Interactive connects the subprocess to the terminal streams instead
	// of capturing its output.
	Interactive bool
}

// String renders the command line for logs and error messages.
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a finished subprocess.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError is returned when a subprocess exits with a non-zero status.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Cmd, msg)
}

// Runner runs subprocesses. Implementations block until the process exits.
type Runner interface {
	Run(ctx context.Context, c Cmd) (Result, error)
}

// Exec is the os/exec backed Runner. Zero-value streams default to the
// process's own stdin, stdout and stderr.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Exec runner bound to the process terminal.
func New() *Exec {
	return &Exec{}
}

// Run executes c and waits for it to finish.
func (e *Exec) Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = firstReader(c.Stdin, e.Stdin, os.Stdin)
		cmd.Stdout = firstWriter(e.Stdout, os.Stdout)
		cmd.Stderr = firstWriter(e.Stderr, os.Stderr)
	} else {
		cmd.Stdin = c.Stdin
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Cmd: c.String(), Code: res.ExitCode, Stderr: res.Stderr}
	}
	res.ExitCode = -1
	return res, fmt.Errorf("%s: %w", c.String(), err)
}

// Output runs name with args captured and returns trimmed stdout.
// On failure the error carries the trimmed stderr, like the git helpers it
// backs.
func Output(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	res, err := r.Run(ctx, Cmd{Name: name, Args: args})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Interactive runs name with args attached to the terminal.
func Interactive(ctx context.Context, r Runner, name string, args ...string) error {
	_, err := r.Run(ctx, Cmd{Name: name, Args: args, Interactive: true})
	return err
}

// Shell runs script through `sh -c` attached to the terminal.
func Shell(ctx context.Context, r Runner, script string, env ...string) error {
	// #nosec G204 -- hook snippets come from the user's own config
	_, err := r.Run(ctx, Cmd{Name: "sh", Args: []string{"-c", script}, Env: env, Interactive: true})
	return err
}

func firstReader(rs ...io.Reader) io.Reader {
	for _, r := range rs {
		if r != nil {
			return r
		}
	}
	return nil
}

func firstWriter(ws ...io.Writer) io.Writer {
	for _, w := range ws {
		if w != nil {
			return w
		}
	}
	return nil
}
