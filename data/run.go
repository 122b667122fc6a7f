package data

import (
	"database/sql"
	"time"
)

const (
	RunKindTags   = "tags"
	RunKindTracks = "tracks"
)

// A Run records one collection pass. A run with no FinishedAt was interrupted;
// everything it flushed before dying is still in the database.
type Run struct {
	ID   string `gorm:"primaryKey"`
	Kind string

	StartedAt  time.Time
	FinishedAt sql.NullTime

	// number of distinct genres (tag runs) or tracks (track runs) seen
	Discovered int64
	Error      string
}
