// Package testutil holds fakes shared by package tests: a scripted
// subprocess runner and an in-memory GitHub API.
package testutil

import (
	"context"
	"sync"

	"github.com/rnwolfe/gh/internal/runner"
)

// Response is a scripted subprocess outcome.
type Response struct {
	Stdout string
	Stderr string
	Code   int
}

// FakeRunner records every command and answers from a script keyed by the
// full command line (e.g. "git rev-parse --abbrev-ref HEAD"). Unscripted
// commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]Response
	Calls     []runner.Cmd
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Responses: map[string]Response{}}
}

// On scripts the response for a command line.
func (f *FakeRunner) On(cmdline string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[cmdline] = resp
	return f
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(_ context.Context, c runner.Cmd) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)

	resp := f.Responses[c.String()]
	res := runner.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.Code}
	if resp.Code != 0 {
		return res, &runner.ExitError{Cmd: c.String(), Code: resp.Code, Stderr: resp.Stderr}
	}
	return res, nil
}

// CallLines returns the recorded command lines in order.
func (f *FakeRunner) CallLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}

// ShellScripts returns the scripts passed to `sh -c`, in order.
func (f *FakeRunner) ShellScripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if c.Name == "sh" && len(c.Args) == 2 && c.Args[0] == "-c" {
			out = append(out, c.Args[1])
		}
	}
	return out
}

// GitRepo scripts the git queries gh makes to derive repository context.
func (f *FakeRunner) GitRepo(remoteURL, branch string) *FakeRunner {
	f.On("git config --get remote.origin.url", Response{Stdout: remoteURL + "\n"})
	f.On("git rev-parse --abbrev-ref HEAD", Response{Stdout: branch + "\n"})
	return f
}
