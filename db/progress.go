package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amonks/taggraph/data"
	"github.com/google/uuid"
)

func (db *DB) CountArtists(ctx context.Context) (int, error) {
	return db.count(ctx, "artists")
}

func (db *DB) CountGenres(ctx context.Context) (int, error) {
	return db.count(ctx, "genres")
}

func (db *DB) CountArtistGenres(ctx context.Context) (int, error) {
	return db.count(ctx, "artist_genres")
}

func (db *DB) CountTracks(ctx context.Context) (int, error) {
	return db.count(ctx, "tracks")
}

func (db *DB) count(ctx context.Context, table string) (int, error) {
	var count int64
	if err := db.
		WithContext(ctx).
		Table(table).
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("error counting %s: %w", table, err)
	}
	return int(count), nil
}

// StartRun records the beginning of a collection pass of the given kind.
func (db *DB) StartRun(ctx context.Context, kind string) (data.Run, error) {
	run := data.Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return data.Run{}, fmt.Errorf("error starting %s run: %w", kind, err)
	}
	return run, nil
}

// FinishRun marks the run complete, recording runErr if there is one. It
// takes no context so that canceled runs are still recorded.
func (db *DB) FinishRun(run data.Run, discovered int, runErr error) error {
	updates := map[string]any{
		"finished_at": sql.NullTime{Time: time.Now(), Valid: true},
		"discovered":  int64(discovered),
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	if err := db.
		Model(&data.Run{}).
		Where("id = ?", run.ID).
		Updates(updates).
		Error; err != nil {
		return fmt.Errorf("error finishing run '%s': %w", run.ID, err)
	}
	return nil
}

// LatestRuns returns the most recently started runs, newest first.
func (db *DB) LatestRuns(ctx context.Context, limit int) ([]data.Run, error) {
	var runs []data.Run
	if err := db.
		WithContext(ctx).
		Order("started_at desc").
		Limit(limit).
		Find(&runs).
		Error; err != nil {
		return nil, fmt.Errorf("error getting runs: %w", err)
	}
	return runs, nil
}
