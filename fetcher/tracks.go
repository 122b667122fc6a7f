package fetcher

import (
	"context"
	"fmt"

	"github.com/amonks/taggraph/data"
)

// CollectTracks searches for tracks by letter, storing each one along with
// its artist. It returns the number of distinct tracks it saw.
func (f *Fetcher) CollectTracks(ctx context.Context) (int, error) {
	run, err := f.db.StartRun(ctx, data.RunKindTracks)
	if err != nil {
		return 0, err
	}

	count, err := f.collectTracks(ctx)
	if finishErr := f.db.FinishRun(run, count, err); finishErr != nil && err == nil {
		err = finishErr
	}
	if err != nil {
		return count, err
	}

	f.log.Info().Str("run", run.ID).Int("tracks", count).Msg("collected tracks")
	return count, nil
}

func (f *Fetcher) collectTracks(ctx context.Context) (int, error) {
	type key struct{ artist, name string }
	seen := map[key]struct{}{}
	b := &batch{db: f.db, size: f.opts.BatchSize}

	for _, letter := range f.letters() {
		if err := canceled(ctx); err != nil {
			return len(seen), err
		}
		f.log.Info().Str("letter", letter).Msg("collecting tracks by letter")
		for i, summary := range f.catalog.SearchTracksByLetter(ctx, letter, f.opts.SearchLimit) {
			if err := canceled(ctx); err != nil {
				return len(seen), err
			}
			if summary.Name == "" || summary.Artist == "" {
				continue
			}
			if _, err := f.db.FindOrCreateArtist(ctx, summary.Artist, ""); err != nil {
				return len(seen), fmt.Errorf("error collecting tracks for letter '%s': %w", letter, err)
			}
			if _, err := f.db.FindOrCreateTrack(ctx, data.Track{
				ArtistName: summary.Artist,
				Name:       summary.Name,
				URL:        summary.URL,
				Listeners:  summary.Listeners,
				Rank:       int64(i + 1),
			}); err != nil {
				return len(seen), fmt.Errorf("error collecting tracks for letter '%s': %w", letter, err)
			}
			seen[key{summary.Artist, summary.Name}] = struct{}{}
			if err := b.done(ctx); err != nil {
				return len(seen), err
			}
		}
		stageDone("tracks")
	}

	if err := f.db.Flush(ctx); err != nil {
		return len(seen), err
	}
	return len(seen), nil
}
