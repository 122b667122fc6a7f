package fetcher_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/amonks/taggraph/data"
	"github.com/amonks/taggraph/db"
	"github.com/amonks/taggraph/fetcher"
	"github.com/amonks/taggraph/lastfm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalog is a canned Last.fm.
type catalog struct {
	mu sync.Mutex

	byLetter  map[string][]lastfm.ArtistSummary
	byCountry map[string][]lastfm.ArtistSummary
	tracks    map[string][]lastfm.TrackSummary
	topTags   map[string][]string
	similar   map[string][]string

	similarCalls []string
	onSearch     func(letter string)
}

func (c *catalog) SearchArtistsByLetter(ctx context.Context, letter string, limit int) []lastfm.ArtistSummary {
	if c.onSearch != nil {
		c.onSearch(letter)
	}
	return c.byLetter[letter]
}

func (c *catalog) SearchTracksByLetter(ctx context.Context, letter string, limit int) []lastfm.TrackSummary {
	return c.tracks[letter]
}

func (c *catalog) GetArtistTopTags(ctx context.Context, artist string) []lastfm.TagSummary {
	return tags(c.topTags[artist]...)
}

func (c *catalog) GetSimilarTags(ctx context.Context, tag string) []lastfm.TagSummary {
	c.mu.Lock()
	c.similarCalls = append(c.similarCalls, tag)
	c.mu.Unlock()
	return tags(c.similar[tag]...)
}

func (c *catalog) GetTopArtistsByCountry(ctx context.Context, country string, limit int) []lastfm.ArtistSummary {
	return c.byCountry[country]
}

func tags(names ...string) []lastfm.TagSummary {
	var out []lastfm.TagSummary
	for _, name := range names {
		out = append(out, lastfm.TagSummary{Name: name, URL: "https://www.last.fm/tag/" + name})
	}
	return out
}

func artists(names ...string) []lastfm.ArtistSummary {
	var out []lastfm.ArtistSummary
	for _, name := range names {
		out = append(out, lastfm.ArtistSummary{Name: name, URL: "https://www.last.fm/music/" + name})
	}
	return out
}

func newCatalog() *catalog {
	return &catalog{
		byLetter: map[string][]lastfm.ArtistSummary{
			"a": artists("ABBA", "AC/DC"),
			"b": artists("Björk"),
		},
		byCountry: map[string][]lastfm.ArtistSummary{
			"France": artists("Daft Punk", "ABBA"),
		},
		topTags: map[string][]string{
			"ABBA":      {"pop", "disco"},
			"AC/DC":     {"rock"},
			"Björk":     {"electronic", "pop"},
			"Daft Punk": {"electronic", "house"},
		},
		similar: map[string][]string{
			"pop":        {"dance pop"},
			"rock":       {"hard rock"},
			"electronic": {"house"},
			"dance pop":  {"should not be expanded"},
		},
	}
}

func open(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "taggraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func options() fetcher.Options {
	return fetcher.Options{
		Letters:   2,
		Countries: []string{"France"},
		Logger:    zerolog.Nop(),
	}
}

func names(genres []data.Genre) []string {
	out := make([]string, len(genres))
	for i, genre := range genres {
		out[i] = genre.Name
	}
	return out
}

func TestCollectAllTags(t *testing.T) {
	ctx := context.Background()
	store := open(t)
	cat := newCatalog()

	genres, err := fetcher.New(store, cat, options()).CollectAllTags(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"pop", "disco", "rock", "electronic", "house", "dance pop", "hard rock"}, names(genres))

	// only genres present when the similarity stage began get expanded
	assert.ElementsMatch(t, []string{"pop", "disco", "rock", "electronic", "house"}, cat.similarCalls)

	for genre, want := range map[string][]string{
		"pop":       {"ABBA", "Björk"},
		"house":     {"Björk", "Daft Punk"},
		"dance pop": {"ABBA", "Björk"},
		"hard rock": {"AC/DC"},
	} {
		got, err := store.ArtistsOfGenre(ctx, genre)
		require.NoError(t, err)
		assert.Equal(t, want, got, genre)
	}

	progress, err := fetcher.New(store, cat, options()).Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, progress.Artists)
	assert.Equal(t, 7, progress.Genres)
	require.Len(t, progress.Runs, 1)
	assert.Equal(t, data.RunKindTags, progress.Runs[0].Kind)
	assert.Equal(t, int64(7), progress.Runs[0].Discovered)
	assert.True(t, progress.Runs[0].FinishedAt.Valid)
	assert.Empty(t, progress.Runs[0].Error)
}

func TestCollectAllTagsTwiceReusesRows(t *testing.T) {
	ctx := context.Background()
	store := open(t)

	_, err := fetcher.New(store, newCatalog(), options()).CollectAllTags(ctx)
	require.NoError(t, err)
	before, err := fetcher.New(store, newCatalog(), options()).Report(ctx)
	require.NoError(t, err)

	genres, err := fetcher.New(store, newCatalog(), options()).CollectAllTags(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 7)

	after, err := fetcher.New(store, newCatalog(), options()).Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Artists, after.Artists)
	assert.Equal(t, before.Genres, after.Genres)
	assert.Equal(t, before.ArtistGenres, after.ArtistGenres)
	assert.Len(t, after.Runs, 2)
}

func TestCollectAllTagsSurvivesEmptyCatalog(t *testing.T) {
	store := open(t)

	genres, err := fetcher.New(store, &catalog{}, options()).CollectAllTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, genres)
}

func TestCollectAllTagsCanceled(t *testing.T) {
	store := open(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := newCatalog()
	cat.onSearch = func(letter string) {
		if letter == "b" {
			cancel()
		}
	}
	opts := options()
	opts.BatchSize = 1

	_, err := fetcher.New(store, cat, opts).CollectAllTags(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// letter a's artists were flushed before the cancellation
	n, err := store.CountArtists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runs, err := store.LatestRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Error, "canceled")
}

func TestCollectAllTagsPersistenceFailure(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "taggraph.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = fetcher.New(store, newCatalog(), options()).CollectAllTags(context.Background())
	assert.Error(t, err)
}

func TestCollectAllTagsFlushFailure(t *testing.T) {
	ctx := context.Background()
	store := open(t)

	cat := newCatalog()
	cat.onSearch = func(letter string) {
		if letter == "b" {
			require.NoError(t, store.Exec("drop table artist_genres").Error)
		}
	}
	opts := options()
	opts.BatchSize = 1

	_, err := fetcher.New(store, cat, opts).CollectAllTags(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error collecting artists for letter 'b'")
	assert.Contains(t, err.Error(), "error flushing after 3 items")

	// letter a's artists were committed before the failing batch
	n, err := store.CountArtists(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runs, err := store.LatestRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].FinishedAt.Valid)
	assert.Contains(t, runs[0].Error, "error flushing after 3 items")
	assert.Contains(t, runs[0].Error, "artist_genres")
}

func TestCollectAllTagsCached(t *testing.T) {
	ctx := context.Background()
	store := open(t)
	cat := newCatalog()
	f := fetcher.New(store, cat, options())

	first, err := f.CollectAllTagsCached(ctx)
	require.NoError(t, err)
	second, err := f.CollectAllTagsCached(ctx)
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
	assert.Len(t, cat.similarCalls, 5)

	runs, err := store.LatestRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCollectTracks(t *testing.T) {
	ctx := context.Background()
	store := open(t)
	cat := &catalog{
		tracks: map[string][]lastfm.TrackSummary{
			"a": {
				{Name: "Angie", Artist: "The Rolling Stones", Listeners: 700000},
				{Name: "Africa", Artist: "Toto", Listeners: 1500000},
				{Name: "", Artist: "Nobody"},
			},
			"b": {
				{Name: "Bohemian Rhapsody", Artist: "Queen", Listeners: 2000000},
				{Name: "Angie", Artist: "The Rolling Stones", Listeners: 700000},
			},
		},
	}
	opts := options()
	opts.BatchSize = 2

	n, err := fetcher.New(store, cat, opts).CollectTracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tracks, err := store.GetTracksByArtist(ctx, "Toto")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Africa", tracks[0].Name)
	assert.Equal(t, int64(2), tracks[0].Rank)

	artistCount, err := store.CountArtists(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, artistCount)
}
