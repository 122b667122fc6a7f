package data

import "time"

// Tracks are identified by their artist and their name.
type Track struct {
	ArtistName string `gorm:"primaryKey"`
	Name       string `gorm:"primaryKey"`
	URL        string

	// like 1209764, from track.search
	Listeners int64

	// position in the search results that found it, starting at 1
	Rank int64

	CreatedAt time.Time
}
