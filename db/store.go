package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amonks/taggraph/data"
	"github.com/amonks/taggraph/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindOrCreateArtist returns the artist with the given name, creating it
// (staged until the next Flush) if neither this process nor the database
// has seen it. An existing artist keeps its original url.
func (db *DB) FindOrCreateArtist(ctx context.Context, name, url string) (data.Artist, error) {
	if name == "" {
		return data.Artist{}, fmt.Errorf("no artist name")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	artist, err := findOrCreate(ctx, db.DB, db.artists, name, &db.pendingArtists,
		data.Artist{Name: name, URL: url, CreatedAt: time.Now()},
		"name = ?", name)
	if err != nil {
		return data.Artist{}, fmt.Errorf("error finding artist '%s': %w", name, err)
	}
	return artist, nil
}

// FindOrCreateGenre is FindOrCreateArtist for genres.
func (db *DB) FindOrCreateGenre(ctx context.Context, name, url string) (data.Genre, error) {
	if name == "" {
		return data.Genre{}, fmt.Errorf("no genre name")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	genre, err := findOrCreate(ctx, db.DB, db.genres, name, &db.pendingGenres,
		data.Genre{Name: name, URL: url, CreatedAt: time.Now()},
		"name = ?", name)
	if err != nil {
		return data.Genre{}, fmt.Errorf("error finding genre '%s': %w", name, err)
	}
	return genre, nil
}

// FindOrCreateTrack finds or stages a track, identified by its artist and
// name.
func (db *DB) FindOrCreateTrack(ctx context.Context, track data.Track) (data.Track, error) {
	if track.ArtistName == "" {
		return data.Track{}, fmt.Errorf("no artist name")
	}
	if track.Name == "" {
		return data.Track{}, fmt.Errorf("no track name")
	}
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	key := trackKey{track.ArtistName, track.Name}
	found, err := findOrCreate(ctx, db.DB, db.tracks, key, &db.pendingTracks, track,
		"artist_name = ? and name = ?", track.ArtistName, track.Name)
	if err != nil {
		return data.Track{}, fmt.Errorf("error finding track '%s' by '%s': %w", track.Name, track.ArtistName, err)
	}
	return found, nil
}

func findOrCreate[K comparable, T any](ctx context.Context, gdb *gorm.DB, known map[K]T, key K, pending *[]T, fresh T, where string, args ...any) (T, error) {
	if found, ok := known[key]; ok {
		metrics.StoreLookups.WithLabelValues(kindOf(fresh), "memory").Inc()
		return found, nil
	}

	var found T
	err := gdb.WithContext(ctx).Where(where, args...).Take(&found).Error
	switch {
	case err == nil:
		metrics.StoreLookups.WithLabelValues(kindOf(fresh), "db").Inc()
		known[key] = found
		return found, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.StoreCreates.WithLabelValues(kindOf(fresh)).Inc()
		known[key] = fresh
		*pending = append(*pending, fresh)
		return fresh, nil
	default:
		var zero T
		return zero, err
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case data.Artist:
		return "artist"
	case data.Genre:
		return "genre"
	case data.Track:
		return "track"
	default:
		return "other"
	}
}

// LinkArtistGenre records that the artist is tagged with the genre. Both
// directions of the relation are updated together, and linking a pair
// twice is a no-op.
func (db *DB) LinkArtistGenre(ctx context.Context, artistName, genreName string) error {
	if artistName == "" {
		return fmt.Errorf("no artist name")
	}
	if genreName == "" {
		return fmt.Errorf("no genre name")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("canceled: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.artistGenres[artistName][genreName]; ok {
		return nil
	}
	link(db.artistGenres, artistName, genreName)
	link(db.genreArtists, genreName, artistName)
	db.pendingEdges = append(db.pendingEdges, data.ArtistGenre{ArtistName: artistName, GenreName: genreName})
	metrics.StoreCreates.WithLabelValues("edge").Inc()
	return nil
}

func link(index map[string]map[string]struct{}, from, to string) {
	if index[from] == nil {
		index[from] = map[string]struct{}{}
	}
	index[from][to] = struct{}{}
}

// ArtistsOfGenre returns the names of every artist linked to the genre,
// whether flushed or still staged, in name order.
func (db *DB) ArtistsOfGenre(ctx context.Context, genreName string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	names := []string{}
	if err := db.
		WithContext(ctx).
		Table("artist_genres").
		Where("genre_name = ?", genreName).
		Pluck("artist_name", &names).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artists of genre '%s': %w", genreName, err)
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		seen[name] = struct{}{}
	}
	for name := range db.genreArtists[genreName] {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Pending reports how many staged rows the next Flush would write.
func (db *DB) Pending() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.pendingArtists) + len(db.pendingGenres) + len(db.pendingTracks) + len(db.pendingEdges)
}

// Flush writes every staged row in a single transaction, then forgets the
// in-memory lookups so memory stays bounded by the batch size. Rows that
// already exist (from a previous, interrupted run) are left alone.
func (db *DB) Flush(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, db.pendingArtists); err != nil {
			return fmt.Errorf("error inserting artists: %w", err)
		}
		if err := insert(tx, db.pendingGenres); err != nil {
			return fmt.Errorf("error inserting genres: %w", err)
		}
		if err := insert(tx, db.pendingEdges); err != nil {
			return fmt.Errorf("error inserting artist genres: %w", err)
		}
		if err := insert(tx, db.pendingTracks); err != nil {
			return fmt.Errorf("error inserting tracks: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error flushing: %w", err)
	}

	metrics.StoreFlushes.Inc()
	db.pendingArtists = nil
	db.pendingGenres = nil
	db.pendingTracks = nil
	db.pendingEdges = nil
	db.release()
	return nil
}

func insert[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 100).
		Error
}
