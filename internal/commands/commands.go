// Package commands holds gh's built-in commands.
package commands

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/runner"
)

// Register adds every built-in command to r.
func Register(r *command.Registry) {
	r.Register(Alias{})
	r.Register(Help{})
	r.Register(Version{})
	r.Register(User{})
	r.Register(Issue{})
	r.Register(PullRequest{})
	r.Register(Gist{})
	r.Register(Repo{})
	r.Register(Milestone{})
	r.Register(Notification{})
}

// Shorthand option constructors keep descriptors readable.
var (
	boolOpt = func(usage string) options.OptionSpec {
		return options.OptionSpec{Type: options.TypeBool, Usage: usage}
	}
	stringOpt = func(usage string) options.OptionSpec {
		return options.OptionSpec{Type: options.TypeString, Usage: usage}
	}
	numberOpt = func(usage string) options.OptionSpec {
		return options.OptionSpec{Type: options.TypeNumber, Usage: usage}
	}
	listOpt = func(usage string) options.OptionSpec {
		return options.OptionSpec{Type: options.TypeList, Usage: usage}
	}
	enumOpt = func(usage string, values ...string) options.OptionSpec {
		return options.OptionSpec{Type: options.TypeEnum, Values: values, Usage: usage}
	}
)

// requireRepo returns the owner and repository the command targets.
func requireRepo(opts *options.Options) (string, string, error) {
	if opts.User == "" || opts.Repo == "" {
		return "", "", command.Fatalf("%s: not a git repository and no --user/--repo given", opts.Command)
	}
	return opts.User, opts.Repo, nil
}

// requireNumber returns the iteration's number or a fatal error naming the
// action that needed it.
func requireNumber(opts *options.Options, action string) (int, error) {
	if opts.Number <= 0 {
		return 0, command.Fatalf("%s --%s requires --number", opts.Command, action)
	}
	return opts.Number, nil
}

// numericPayload reports whether every positional argument is a number.
func numericPayload(positional []string) bool {
	if len(positional) == 0 {
		return false
	}
	for _, p := range positional {
		if _, err := strconv.Atoi(strings.TrimPrefix(p, "#")); err != nil {
			return false
		}
	}
	return true
}

func trimHashes(positional []string) []string {
	out := make([]string, len(positional))
	for i, p := range positional {
		out[i] = strings.TrimPrefix(p, "#")
	}
	return out
}

// webURL builds a browser URL on the configured host.
func webURL(env *command.Env, parts ...string) string {
	host := "github.com"
	if env.Config != nil {
		if h := env.Config.GetString("github_host"); h != "" {
			host = h
		}
	}
	return "https://" + host + "/" + strings.Join(parts, "/")
}

// openBrowser opens url with the platform's opener.
func openBrowser(ctx context.Context, env *command.Env, url string) error {
	name, args := "xdg-open", []string{url}
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	}
	env.Out.Inf("opening " + url)
	if _, err := env.Runner.Run(ctx, runner.Cmd{Name: name, Args: args}); err != nil {
		return command.Warning(fmt.Errorf("opening browser: %w", err))
	}
	return nil
}

// withSignature appends the configured signature to a body.
func withSignature(env *command.Env, body string) string {
	if env.Config == nil {
		return body
	}
	sig := env.Config.GetString("signature")
	if sig == "" {
		return body
	}
	if body == "" {
		return sig
	}
	return body + "\n\n" + sig
}

// invoke wraps body in the hook sequence for <command>.<action>.
func invoke(ctx context.Context, env *command.Env, opts *options.Options, action string, body func(context.Context) error) error {
	return env.Hooks.Invoke(ctx, opts.Command+"."+action, opts, body)
}

func shortDate(t interface{ Format(string) string }) string {
	return t.Format("2006-01-02")
}
