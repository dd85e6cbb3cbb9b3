// Package cmd is gh's process entrypoint. Cobra owns shell completion;
// everything else is handed to the dispatcher untouched.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/commands"
	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/dispatch"
	"github.com/rnwolfe/gh/internal/exitcode"
	"github.com/rnwolfe/gh/internal/plugin"
	"github.com/rnwolfe/gh/internal/runner"
	"github.com/rnwolfe/gh/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:                "gh <command> [flags]",
	Short:              "GitHub from the command line",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	ValidArgsFunction:  completeCommands,
	RunE:               runDispatch,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCode is the dispatcher's result, read after cobra returns.
var exitCode = exitcode.Success

// Execute runs gh and exits the process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.NewPrinter().Error(err.Error())
		os.Exit(exitcode.Failure)
	}
	os.Exit(exitCode)
}

func newRegistry() *command.Registry {
	reg := command.NewRegistry(nil)
	commands.Register(reg)
	return reg
}

func runDispatch(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	d := &dispatch.Dispatcher{
		Registry:    newRegistry(),
		NewAPI:      newAPI,
		Runner:      runner.New(),
		Out:         ui.NewPrinter(),
		In:          os.Stdin,
		LogFile:     paths.LogFile,
		Interactive: isTerminal(os.Stdin) && isTerminal(os.Stdout),
	}
	exitCode = d.Run(cmd.Context(), args)
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// completeCommands offers built-in names, aliases and installed plugins
// for the first word.
func completeCommands(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return commandNames(ctx, newRegistry(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func commandNames(ctx context.Context, reg *command.Registry, prefix string) []string {
	names := reg.Names()
	if cfg, err := config.Load(ctx); err == nil {
		dir := cfg.GetString("plugins_dir")
		if dir == "" {
			dir = cfg.Paths().PluginsDir
		}
		loader := &plugin.Loader{Dir: dir, Config: cfg, Runner: runner.New()}
		for _, p := range loader.Infos() {
			names = append(names, p.Name)
			if p.Alias != "" {
				names = append(names, p.Alias)
			}
		}
	}

	out := names[:0]
	seen := map[string]bool{}
	for _, n := range names {
		if strings.HasPrefix(n, prefix) && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
