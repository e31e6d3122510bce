package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xpanddigital/cratehq-enrich/internal/enrich"
	"github.com/xpanddigital/cratehq-enrich/internal/scrape"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
	"github.com/xpanddigital/cratehq-enrich/internal/valuation"
	"github.com/xpanddigital/cratehq-enrich/pkg/actor"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "enrich.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline wires the discovery pipeline: the rate-limited direct fetcher
// plus the hosted-actor gateway for blocked surfaces.
func initPipeline() *enrich.Pipeline {
	fetcher := scrape.NewDirectFetcher(cfg.Scrape.RequestsPerSecond)

	client := actor.NewClient(cfg.Actor.Token, actor.WithBaseURL(cfg.Actor.BaseURL))
	gateway := scrape.NewGateway(client, cfg.Actor.IDs,
		actor.WithPollInterval(time.Duration(cfg.Actor.PollIntervalSecs)*time.Second),
		actor.WithPollTimeout(time.Duration(cfg.Actor.PollTimeoutSecs)*time.Second),
	)

	return enrich.NewPipeline(fetcher, gateway)
}

// loadRules reads the qualification rule file, falling back to the built-in
// defaults when no path is configured.
func loadRules() valuation.Rules {
	if cfg.Qualify.RulesPath == "" {
		return valuation.DefaultRules()
	}
	rules, err := valuation.LoadRules(cfg.Qualify.RulesPath)
	if err != nil {
		zap.L().Warn("rule file unreadable, using defaults",
			zap.String("path", cfg.Qualify.RulesPath),
			zap.Error(err),
		)
	}
	return rules
}
