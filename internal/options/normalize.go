package options

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rnwolfe/gh/internal/git"
)

const defaultRemote = "origin"

// Payloader is implemented by commands that interpret bare positional
// arguments, such as "gh is 42".
type Payloader interface {
	Payload(positional []string, opts *Options) error
}

// ConfigReader is the slice of the config store the normalizer reads.
type ConfigReader interface {
	GetString(path string) string
	GetStringMapString(path string) map[string]string
}

// ContextDeriver reads repository context from the working tree.
type ContextDeriver interface {
	Derive(ctx context.Context, remote string) (git.Context, error)
}

// Normalizer fills contextual defaults into parsed options.
type Normalizer struct {
	Config ConfigReader
	Git    ContextDeriver
}

// Normalize applies the defaulting rules in order:
//  1. seed an empty iterative flag with one undefined element
//  2. derive User
//  3. derive Repo
//  4. derive CurrentBranch
//  5. expand aliases on User and ExpandAlias flags
//  6. run the command's payload when no action flag was given
//
// Failing to read git context is not an error; the fields stay empty.
func (n *Normalizer) Normalize(ctx context.Context, desc Descriptor, opts *Options, payload Payloader) error {
	logger := zerolog.Ctx(ctx).With().Str("component", "options").Logger()

	if it := desc.Iterative; it != "" && len(opts.List(it)) == 0 {
		opts.setDefault(it, []string{""})
	}

	if opts.Remote == "" {
		opts.Remote = n.Config.GetString("default_remote")
	}
	if opts.Remote == "" {
		opts.Remote = defaultRemote
	}
	opts.LoggedUser = n.Config.GetString("github_user")

	var gctx git.Context
	if n.Git != nil {
		var err error
		gctx, err = n.Git.Derive(ctx, opts.Remote)
		if err != nil {
			logger.Debug().Err(err).Str("remote", opts.Remote).Msg("no git context")
		}
	}
	opts.RemoteUser = gctx.Remote.Owner

	if opts.User == "" {
		switch {
		case opts.IsSet("repo") || opts.Bool("all"):
			opts.User = opts.LoggedUser
		case opts.RemoteUser != "":
			opts.User = opts.RemoteUser
		default:
			opts.User = opts.LoggedUser
		}
	}

	if opts.Repo == "" {
		opts.Repo = gctx.Remote.Repo
	}
	opts.CurrentBranch = gctx.CurrentBranch

	aliases := n.Config.GetStringMapString("alias")
	opts.User = ExpandAlias(aliases, opts.User)
	for _, name := range desc.OptionNames() {
		spec := desc.Options[name]
		if !spec.ExpandAlias || !opts.IsSet(name) {
			continue
		}
		if s, ok := opts.flags[name].(string); ok {
			opts.flags[name] = ExpandAlias(aliases, s)
		}
	}

	if payload != nil && !opts.ActionGiven(desc) {
		if err := payload.Payload(opts.Argv.Positional(), opts); err != nil {
			return err
		}
	}

	logger.Debug().
		Str("command", opts.Command).
		Str("user", opts.User).
		Str("repo", opts.Repo).
		Str("branch", opts.CurrentBranch).
		Msg("options normalized")
	return nil
}

// ExpandAlias returns the alias table's value for name, or name itself.
// Config keys are case-insensitive, so the lowercased name is tried too.
func ExpandAlias(aliases map[string]string, name string) string {
	if name == "" {
		return name
	}
	if v := aliases[name]; v != "" {
		return v
	}
	if v := aliases[strings.ToLower(name)]; v != "" {
		return v
	}
	return name
}
