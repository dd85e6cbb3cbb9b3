package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/rnwolfe/gh/internal/command"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/options"
	"github.com/rnwolfe/gh/internal/ui"
)

// watchUnit scales --interval. Tests shorten it.
var watchUnit = time.Second

// Notification shows recent repository activity.
type Notification struct{}

func (Notification) Describe() options.Descriptor {
	return options.Descriptor{
		Name:        "notification",
		Alias:       "nt",
		Description: "Show recent activity on the repository",
		Commands:    []string{"latest", "watch"},
		Options: map[string]options.OptionSpec{
			"latest":   boolOpt("Show the latest events"),
			"watch":    boolOpt("Poll for new events until interrupted"),
			"interval": numberOpt("Seconds between polls with --watch"),
		},
		Shorthands: map[string]string{
			"l": "latest",
			"w": "watch",
			"i": "interval",
		},
	}
}

func (n Notification) Run(ctx context.Context, env *command.Env, opts *options.Options) error {
	action := opts.Action(n.Describe(), "latest")
	return invoke(ctx, env, opts, action, func(ctx context.Context) error {
		owner, repo, err := requireRepo(opts)
		if err != nil {
			return err
		}
		api, err := env.Client(ctx)
		if err != nil {
			return err
		}
		if action == "watch" {
			return n.watch(ctx, env, api, owner, repo, opts.Int("interval"))
		}
		events, err := api.ListRepoEvents(ctx, owner, repo)
		if err != nil {
			return command.APIWarning(err, "listing events of %s/%s", owner, repo)
		}
		env.Out.Header(owner + "/" + repo)
		if len(events) == 0 {
			env.Out.Inf("no recent activity")
			return nil
		}
		rows := make([][]string, len(events))
		for i, e := range events {
			rows[i] = eventRow(e)
		}
		env.Out.Table(nil, rows)
		return nil
	})
}

// watch prints events not seen before, polling until ctx is done.
func (Notification) watch(ctx context.Context, env *command.Env, api github.API, owner, repo string, interval int) error {
	if interval <= 0 {
		interval = 60
	}
	seen := map[string]bool{}
	first := true
	ticker := time.NewTicker(time.Duration(interval) * watchUnit)
	defer ticker.Stop()

	env.Out.Inf("watching " + owner + "/" + repo + " every " + strconv.Itoa(interval) + "s")
	for {
		events, err := api.ListRepoEvents(ctx, owner, repo)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			env.Out.Warn(command.APIWarning(err, "listing events of %s/%s", owner, repo).Error())
		}
		// Events arrive newest first; print oldest first.
		for i := len(events) - 1; i >= 0; i-- {
			e := events[i]
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			if first && i >= 10 {
				continue
			}
			env.Out.Puts(ui.Muted.Render(e.CreatedAt.Local().Format(time.Kitchen)) + " " + e.Actor + " " + e.Summary)
		}
		first = false

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func eventRow(e github.Event) []string {
	return []string{ui.Muted.Render(shortDate(e.CreatedAt)), e.Actor, e.Type, e.Summary}
}
