package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/amonks/taggraph/fetcher"
	"github.com/amonks/taggraph/setflag"
	"github.com/amonks/taggraph/subcmd"
)

func collect(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("collect", "crawl last.fm for genres and the artists tagged with them")
	var (
		cached    = subcmd.Bool("cached", false, "reuse the result of a crawl from the last 24 hours, if there was one")
		letters   = subcmd.Int("letters", app.cfg.Crawl.Letters, "how many letters of the alphabet to search, starting from 'a'")
		countries = setflag.New(slices.Concat(app.cfg.Crawl.Countries, fetcher.DefaultCountries)...)
	)
	subcmd.Var(countries, "countries", "comma-separated countries whose top artists to crawl (default from config)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	if err := app.cfg.RequireAPIKey(); err != nil {
		return err
	}

	cache, err := app.cache()
	if err != nil {
		return err
	}
	defer cache.Close()

	opts := app.fetcherOptions(cache)
	opts.Letters = *letters
	if chosen := countries.List(); len(chosen) > 0 {
		opts.Countries = chosen
	}
	f := fetcher.New(app.db, app.client(cache), opts)

	return app.withMetrics(ctx, func(ctx context.Context) error {
		collectAllTags := f.CollectAllTags
		if *cached {
			collectAllTags = f.CollectAllTagsCached
		}
		genres, err := collectAllTags(ctx)
		if err != nil {
			return fmt.Errorf("collect error: %w", err)
		}
		printer.Printf("collected %d genres\n", len(genres))
		return nil
	})
}

func tracks(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("tracks", "search last.fm for tracks by letter")
	letters := subcmd.Int("letters", app.cfg.Crawl.Letters, "how many letters of the alphabet to search, starting from 'a'")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	if err := app.cfg.RequireAPIKey(); err != nil {
		return err
	}

	cache, err := app.cache()
	if err != nil {
		return err
	}
	defer cache.Close()

	opts := app.fetcherOptions(cache)
	opts.Letters = *letters
	f := fetcher.New(app.db, app.client(cache), opts)

	return app.withMetrics(ctx, func(ctx context.Context) error {
		count, err := f.CollectTracks(ctx)
		if err != nil {
			return fmt.Errorf("tracks error: %w", err)
		}
		printer.Printf("collected %d tracks\n", count)
		return nil
	})
}
