package fetcher

import (
	"context"
	"fmt"

	"github.com/amonks/taggraph/data"
	"github.com/amonks/taggraph/db"
	"github.com/amonks/taggraph/lastfm"
	"github.com/amonks/taggraph/metrics"
	"github.com/amonks/taggraph/readthrough"
	"github.com/rs/zerolog"
)

// Catalog is the subset of *lastfm.Client the fetcher crawls. Its methods
// never fail; a failed call is just an empty result.
type Catalog interface {
	SearchArtistsByLetter(ctx context.Context, letter string, limit int) []lastfm.ArtistSummary
	SearchTracksByLetter(ctx context.Context, letter string, limit int) []lastfm.TrackSummary
	GetArtistTopTags(ctx context.Context, artist string) []lastfm.TagSummary
	GetSimilarTags(ctx context.Context, tag string) []lastfm.TagSummary
	GetTopArtistsByCountry(ctx context.Context, country string, limit int) []lastfm.ArtistSummary
}

var DefaultCountries = []string{
	"United States",
	"United Kingdom",
	"France",
	"Germany",
	"Japan",
	"Australia",
	"Brazil",
	"Canada",
	"Russia",
	"India",
}

const alphabet = "abcdefghijklmnopqrstuvwxyz"

type Options struct {
	// How many letters of the alphabet to search, starting from "a".
	Letters      int
	Countries    []string
	SearchLimit  int
	CountryLimit int

	// Staged entities are flushed every BatchSize artists (or similar tags).
	BatchSize int

	// Backs CollectAllTagsCached. Defaults to an in-memory cache.
	Cache *readthrough.ReadThrough

	Logger zerolog.Logger
}

type Fetcher struct {
	db      *db.DB
	catalog Catalog
	opts    Options
	log     zerolog.Logger
}

func New(db *db.DB, catalog Catalog, opts Options) *Fetcher {
	if opts.Letters <= 0 {
		opts.Letters = 5
	}
	if opts.Letters > len(alphabet) {
		opts.Letters = len(alphabet)
	}
	if opts.Countries == nil {
		opts.Countries = DefaultCountries
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 50
	}
	if opts.CountryLimit <= 0 {
		opts.CountryLimit = 20
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.Cache == nil {
		opts.Cache = readthrough.New(readthrough.NewMemoryStore())
	}
	return &Fetcher{
		db:      db,
		catalog: catalog,
		opts:    opts,
		log:     opts.Logger.With().Str("component", "fetcher").Logger(),
	}
}

func (f *Fetcher) letters() []string {
	letters := make([]string, f.opts.Letters)
	for i := range letters {
		letters[i] = alphabet[i : i+1]
	}
	return letters
}

// batch counts processed items and flushes the store every size of them.
type batch struct {
	db   *db.DB
	size int
	n    int
}

func (b *batch) done(ctx context.Context) error {
	b.n++
	if b.n%b.size != 0 {
		return nil
	}
	if err := b.db.Flush(ctx); err != nil {
		return fmt.Errorf("error flushing after %d items: %w", b.n, err)
	}
	return nil
}

type Progress struct {
	Artists      int
	Genres       int
	ArtistGenres int
	Tracks       int

	Runs []data.Run
}

// Report counts what's been collected so far, and lists the latest runs.
func (f *Fetcher) Report(ctx context.Context) (Progress, error) {
	progress := Progress{}
	if count, err := f.db.CountArtists(ctx); err != nil {
		return progress, err
	} else {
		progress.Artists = count
	}
	if count, err := f.db.CountGenres(ctx); err != nil {
		return progress, err
	} else {
		progress.Genres = count
	}
	if count, err := f.db.CountArtistGenres(ctx); err != nil {
		return progress, err
	} else {
		progress.ArtistGenres = count
	}
	if count, err := f.db.CountTracks(ctx); err != nil {
		return progress, err
	} else {
		progress.Tracks = count
	}
	if runs, err := f.db.LatestRuns(ctx, 5); err != nil {
		return progress, err
	} else {
		progress.Runs = runs
	}
	return progress, nil
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("canceled: %w", err)
	}
	return nil
}

func stageDone(stage string) {
	metrics.CrawlItems.WithLabelValues(stage).Inc()
}
