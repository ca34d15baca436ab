package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-scanner/internal/config"
	"github.com/sells-group/presence-scanner/internal/extract"
	"github.com/sells-group/presence-scanner/internal/platform"
	"github.com/sells-group/presence-scanner/internal/queue"
	"github.com/sells-group/presence-scanner/internal/resilience"
	"github.com/sells-group/presence-scanner/internal/scan"
	"github.com/sells-group/presence-scanner/internal/store"
	"github.com/sells-group/presence-scanner/internal/webhook"
	"github.com/sells-group/presence-scanner/pkg/places"
	"github.com/sells-group/presence-scanner/pkg/websearch"
)

func newQueue(cfg *config.Config) *queue.Queue {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return queue.New(rdb, time.Duration(cfg.Queue.ResultTTLHours)*time.Hour)
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newRegistry(cfg *config.Config) (*platform.Registry, error) {
	if cfg.Platforms.RegistryPath == "" {
		return platform.DefaultRegistry(), nil
	}
	return platform.LoadRegistry(cfg.Platforms.RegistryPath)
}

func newOrchestrator(cfg *config.Config, reg *platform.Registry) *scan.Orchestrator {
	extractor := extract.NewWebsiteExtractor(
		extract.WithUserAgent(cfg.Crawl.UserAgent),
		extract.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Crawl.TimeoutSecs) * time.Second}),
	)

	listings := extract.NewListingClient(places.NewClient(
		cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
	))

	search := extract.NewSearchClient(websearch.NewClient(
		cfg.Search.Key,
		websearch.WithBaseURL(cfg.Search.BaseURL),
	), cfg.Search.QueriesPerSecond)

	opts := scan.Options{
		CrawlTimeout:  time.Duration(cfg.Scan.CrawlTimeoutSecs) * time.Second,
		LookupTimeout: time.Duration(cfg.Scan.LookupTimeoutSecs) * time.Second,
		SearchTimeout: time.Duration(cfg.Scan.SearchTimeoutSecs) * time.Second,
	}

	return scan.New(extractor, listings, search, reg, opts)
}

func newDeliverer(cfg *config.Config) *webhook.Deliverer {
	policy := resilience.DefaultPolicy()
	if cfg.Webhook.Attempts > 0 {
		policy.Attempts = cfg.Webhook.Attempts
	}
	return webhook.New(
		webhook.WithPolicy(policy),
		webhook.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Webhook.TimeoutSecs) * time.Second}),
	)
}
