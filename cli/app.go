package main

import (
	"context"

	"github.com/amonks/taggraph/config"
	"github.com/amonks/taggraph/db"
	"github.com/amonks/taggraph/fetcher"
	"github.com/amonks/taggraph/lastfm"
	"github.com/amonks/taggraph/limiter"
	"github.com/amonks/taggraph/logging"
	"github.com/amonks/taggraph/readthrough"
	"github.com/amonks/taggraph/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// app is what every subcommand gets to work with.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *db.DB
}

// cache opens the response cache: on disk if a cache dir is configured,
// otherwise in memory.
func (app *app) cache() (*readthrough.ReadThrough, error) {
	if dir := app.cfg.Cache.Dir; dir != "" {
		store, err := readthrough.OpenBadgerStore(dir)
		if err != nil {
			return nil, err
		}
		return readthrough.New(store), nil
	}
	return readthrough.New(readthrough.NewMemoryStore()), nil
}

func (app *app) client(cache *readthrough.ReadThrough) *lastfm.Client {
	cfg := app.cfg.LastFM
	return lastfm.New(lastfm.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		PageCap: cfg.PageCap,
		Limiter: limiter.New(cfg.RateLimit, cfg.RateWindow),
		Cache:   cache,
		Logger:  app.log,
	})
}

func (app *app) fetcherOptions(cache *readthrough.ReadThrough) fetcher.Options {
	cfg := app.cfg.Crawl
	return fetcher.Options{
		Letters:      cfg.Letters,
		Countries:    cfg.Countries,
		SearchLimit:  cfg.SearchLimit,
		CountryLimit: cfg.CountryLimit,
		BatchSize:    cfg.BatchSize,
		Cache:        cache,
		Logger:       app.log,
	}
}

// withMetrics runs fn, serving metrics alongside it if a metrics address is
// configured. The server stops when fn returns.
func (app *app) withMetrics(ctx context.Context, fn func(context.Context) error) error {
	if app.cfg.Metrics.Addr == "" {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, app.cfg.Metrics.Addr, logging.Component(app.log, "server"))
	})
	g.Go(func() error {
		defer cancel()
		return fn(ctx)
	})
	return g.Wait()
}
