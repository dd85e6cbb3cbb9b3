package commands

import (
	"context"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/version"
)

// Version prints gh's version and each installed plugin's.
type Version struct{}

func (Version) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "version",
		Description: "Print version information",
	}
}

func (Version) Run(_ context.Context, env *command.Env, _ *options.Options) error {
	env.Out.Putsf("gh %s", version.Full())
	if env.Plugins == nil {
		return nil
	}
	for _, p := range env.Plugins() {
		env.Out.Putsf("gh-%s %s", p.Name, p.Version)
	}
	return nil
}
