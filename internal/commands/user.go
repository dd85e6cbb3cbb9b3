package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/vault"
)

// User logs in, logs out and reports the authenticated account.
type User struct{}

func (User) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "user",
		Alias:       "us",
		Description: "Log in to GitHub and show the current account",
		Commands:    []string{"login", "logout", "whoami"},
		Options: map[string]options.OptionSpec{
			"login":  boolOpt("Store a personal access token"),
			"logout": boolOpt("Forget the stored token"),
			"whoami": boolOpt("Show the authenticated account"),
			"token":  stringOpt("Token to store with --login (default: $GH_TOKEN or prompt)"),
		},
		Shorthands: map[string]string{
			"l": "login",
			"L": "logout",
			"w": "whoami",
			"t": "token",
		},
	}
}

func (u User) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(u.Describe(), "whoami")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		switch action {
		case "login":
			return u.login(ctx, env, opts)
		case "logout":
			return u.logout(env)
		default:
			return u.whoami(ctx, env)
		}
	})
}

func (User) whoami(ctx context.Context, env *command.Env) error {
	api, err := env.Client(ctx)
	if err != nil {
		return err
	}
	me, err := api.AuthenticatedUser(ctx)
	if err != nil {
		return command.APIWarning(err, "fetching the authenticated user")
	}
	env.Out.Kv("login", me.Login)
	if me.Name != "" {
		env.Out.Kv("name", me.Name)
	}
	env.Out.Kv("url", me.URL)
	return nil
}

func (User) login(ctx context.Context, env *command.Env, opts *options.Options) error {
	token := opts.String("token")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token == "" {
		var err error
		if token, err = promptToken(env); err != nil {
			return command.Fatal(err)
		}
	}
	if token == "" {
		return command.Fatalf("no token given")
	}

	api, err := env.NewAPI(ctx, token)
	if err != nil {
		return command.Fatal(err)
	}
	me, err := api.AuthenticatedUser(ctx)
	if err != nil {
		return command.APIWarning(err, "verifying token")
	}

	where, err := storeToken(env.Config, token)
	if err != nil {
		return command.Fatal(err)
	}
	if err := env.Config.WriteGlobal("github_user", me.Login); err != nil {
		return command.Fatal(err)
	}
	env.API = nil
	env.Out.Okf("logged in as %s (token stored in %s)", me.Login, where)
	return nil
}

func (User) logout(env *command.Env) error {
	v, err := vault.FromEnv(env.Config.Paths().VaultFile)
	if err != nil {
		return command.Fatal(err)
	}
	if v != nil {
		if err := v.DeleteToken(host(env.Config)); err != nil {
			return command.Fatal(err)
		}
	}
	for _, key := range []string{"github_token", "github_user"} {
		if err := env.Config.RemoveGlobal(key); err != nil {
			return command.Fatal(err)
		}
	}
	env.Out.Ok("logged out")
	return nil
}

// promptToken reads a token from the input stream without echo when it is
// a terminal.
func promptToken(env *command.Env) (string, error) {
	in := env.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprint(env.Out.Err, "GitHub token: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(env.Out.Err)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// storeToken saves the token in the encrypted vault when a passphrase is
// configured, otherwise in the global config file.
func storeToken(cfg *config.Store, token string) (string, error) {
	v, err := vault.FromEnv(cfg.Paths().VaultFile)
	if err != nil {
		return "", err
	}
	if v != nil {
		if err := v.SetToken(host(cfg), token); err != nil {
			return "", err
		}
		return "vault", nil
	}
	if err := cfg.WriteGlobal("github_token", token); err != nil {
		return "", err
	}
	return "config", nil
}

// ResolveToken finds the API token: $GH_TOKEN or the config's
// github_token, then the vault when a passphrase is set.
func ResolveToken(cfg *config.Store) (string, error) {
	if t := cfg.GetString("github_token"); t != "" {
		return t, nil
	}
	v, err := vault.FromEnv(cfg.Paths().VaultFile)
	if err != nil || v == nil {
		return "", err
	}
	t, err := v.Token(host(cfg))
	if errors.Is(err, vault.ErrNoToken) {
		return "", nil
	}
	return t, err
}

func host(cfg *config.Store) string {
	if h := cfg.GetString("github_host"); h != "" {
		return h
	}
	return "github.com"
}
