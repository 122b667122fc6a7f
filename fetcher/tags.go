package fetcher

import (
	"context"
	"fmt"

	"github.com/amonks/taggraph/data"
	"github.com/amonks/taggraph/lastfm"
	"github.com/amonks/taggraph/readthrough"
)

// CollectAllTags crawls Last.fm for genres, in three stages:
//
//  1. search for artists by the first few letters of the alphabet, and
//     collect each artist's top tags;
//  2. do the same for each country's top artists;
//  3. for every genre found so far, collect its similar tags, and tag each
//     of the original genre's artists with them.
//
// It returns every genre it saw, in the order it first saw them. Catalog
// failures just mean less data; persistence failures end the run.
func (f *Fetcher) CollectAllTags(ctx context.Context) ([]data.Genre, error) {
	run, err := f.db.StartRun(ctx, data.RunKindTags)
	if err != nil {
		return nil, err
	}

	genres, err := f.collectAllTags(ctx)
	if finishErr := f.db.FinishRun(run, len(genres), err); finishErr != nil && err == nil {
		err = finishErr
	}
	if err != nil {
		return nil, err
	}

	f.log.Info().Str("run", run.ID).Int("genres", len(genres)).Msg("collected tags")
	return genres, nil
}

// CollectAllTagsCached is CollectAllTags, memoized for a day.
func (f *Fetcher) CollectAllTagsCached(ctx context.Context) ([]data.Genre, error) {
	return readthrough.Fetch(ctx, f.opts.Cache, readthrough.AggregateKey, readthrough.AggregateTTL, f.CollectAllTags)
}

func (f *Fetcher) collectAllTags(ctx context.Context) ([]data.Genre, error) {
	acc := newAccumulator()
	b := &batch{db: f.db, size: f.opts.BatchSize}

	for _, letter := range f.letters() {
		if err := canceled(ctx); err != nil {
			return acc.list(), err
		}
		f.log.Info().Str("letter", letter).Msg("collecting artists by letter")
		artists := f.catalog.SearchArtistsByLetter(ctx, letter, f.opts.SearchLimit)
		if err := f.collectArtists(ctx, acc, b, artists); err != nil {
			return acc.list(), fmt.Errorf("error collecting artists for letter '%s': %w", letter, err)
		}
		stageDone("letters")
	}

	for _, country := range f.opts.Countries {
		if err := canceled(ctx); err != nil {
			return acc.list(), err
		}
		f.log.Info().Str("country", country).Msg("collecting artists by country")
		artists := f.catalog.GetTopArtistsByCountry(ctx, country, f.opts.CountryLimit)
		if err := f.collectArtists(ctx, acc, b, artists); err != nil {
			return acc.list(), fmt.Errorf("error collecting artists for country '%s': %w", country, err)
		}
		stageDone("countries")
	}

	// genres found while expanding similar tags aren't themselves expanded
	for _, name := range acc.keys() {
		if err := canceled(ctx); err != nil {
			return acc.list(), err
		}
		f.log.Info().Str("tag", name).Msg("collecting similar tags")
		if err := f.collectSimilar(ctx, acc, b, name); err != nil {
			return acc.list(), fmt.Errorf("error collecting tags similar to '%s': %w", name, err)
		}
		stageDone("similar")
	}

	if err := f.db.Flush(ctx); err != nil {
		return acc.list(), err
	}
	return acc.list(), nil
}

func (f *Fetcher) collectArtists(ctx context.Context, acc *accumulator, b *batch, artists []lastfm.ArtistSummary) error {
	for _, summary := range artists {
		if err := canceled(ctx); err != nil {
			return err
		}
		if summary.Name == "" {
			continue
		}
		artist, err := f.db.FindOrCreateArtist(ctx, summary.Name, summary.URL)
		if err != nil {
			return err
		}
		for _, tag := range f.catalog.GetArtistTopTags(ctx, artist.Name) {
			if tag.Name == "" {
				continue
			}
			genre, err := f.db.FindOrCreateGenre(ctx, tag.Name, tag.URL)
			if err != nil {
				return err
			}
			if err := f.db.LinkArtistGenre(ctx, artist.Name, genre.Name); err != nil {
				return err
			}
			acc.add(genre)
		}
		if err := b.done(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) collectSimilar(ctx context.Context, acc *accumulator, b *batch, name string) error {
	artists, err := f.db.ArtistsOfGenre(ctx, name)
	if err != nil {
		return err
	}
	for _, tag := range f.catalog.GetSimilarTags(ctx, name) {
		if err := canceled(ctx); err != nil {
			return err
		}
		if tag.Name == "" {
			continue
		}
		genre, err := f.db.FindOrCreateGenre(ctx, tag.Name, tag.URL)
		if err != nil {
			return err
		}
		for _, artist := range artists {
			if err := f.db.LinkArtistGenre(ctx, artist, genre.Name); err != nil {
				return err
			}
		}
		acc.add(genre)
		if err := b.done(ctx); err != nil {
			return err
		}
	}
	return nil
}

// accumulator is the set of genres a run has seen, in the order it first
// saw them. Re-adding a genre replaces its value but keeps its place.
type accumulator struct {
	order  []string
	genres map[string]data.Genre
}

func newAccumulator() *accumulator {
	return &accumulator{genres: map[string]data.Genre{}}
}

func (acc *accumulator) add(genre data.Genre) {
	if _, ok := acc.genres[genre.Name]; !ok {
		acc.order = append(acc.order, genre.Name)
	}
	acc.genres[genre.Name] = genre
}

// keys returns a snapshot of the names added so far.
func (acc *accumulator) keys() []string {
	keys := make([]string, len(acc.order))
	copy(keys, acc.order)
	return keys
}

func (acc *accumulator) list() []data.Genre {
	genres := make([]data.Genre, len(acc.order))
	for i, name := range acc.order {
		genres[i] = acc.genres[name]
	}
	return genres
}
