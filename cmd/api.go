package cmd

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rnwolfe/gh/internal/commands"
	"github.com/rnwolfe/gh/internal/config"
	"github.com/rnwolfe/gh/internal/github"
	"github.com/rnwolfe/gh/internal/store"
	"github.com/rnwolfe/gh/internal/version"
)

const (
	cacheMaxAge   = 30 * 24 * time.Hour
	pruneEvery    = 24 * time.Hour
	lastPrunedKey = "http_cache.pruned_at"
)

// newAPI builds the go-github backed client. The HTTP cache is optional:
// when it cannot be opened requests go straight to the network.
func newAPI(ctx context.Context, cfg *config.Store, token string) (github.API, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "api").Logger()

	if token == "" {
		var err error
		if token, err = commands.ResolveToken(cfg); err != nil {
			return nil, err
		}
	}

	var transport http.RoundTripper
	if db, err := store.Open(cfg.Paths().CacheDB); err != nil {
		log.Debug().Err(err).Msg("http cache disabled")
	} else {
		pruneCache(db, log)
		transport = &github.CacheTransport{Store: db}
	}

	return github.NewClient(ctx, github.Options{
		Token:     token,
		BaseURL:   cfg.GetString("api_url"),
		MaxPages:  cfg.GetInt("max_pages"),
		Transport: transport,
		UserAgent: version.UserAgent(),
	})
}

// pruneCache drops stale cache entries at most once a day.
func pruneCache(db *store.DB, log zerolog.Logger) {
	now := time.Now()
	if last, _ := db.Get(lastPrunedKey); last != "" {
		if ts, err := strconv.ParseInt(last, 10, 64); err == nil && now.Sub(time.Unix(ts, 0)) < pruneEvery {
			return
		}
	}
	n, err := db.PruneCache(now.Add(-cacheMaxAge))
	if err != nil {
		log.Debug().Err(err).Msg("pruning http cache")
		return
	}
	if err := db.Set(lastPrunedKey, strconv.FormatInt(now.Unix(), 10)); err != nil {
		log.Debug().Err(err).Msg("recording cache prune")
	}
	log.Debug().Int64("removed", n).Msg("http cache pruned")
}
