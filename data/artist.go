package data

import "time"

// Artists are identified by their name exactly as Last.fm spells it.
//
// Artists have many genres via the association table artist_genres, and own
// their tracks.
type Artist struct {
	Name string `gorm:"primaryKey"`
	URL  string

	CreatedAt time.Time
}
