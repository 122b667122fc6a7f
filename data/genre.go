package data

import "time"

// Genres are Last.fm tags, like "rock" or "shoegaze".
//
// Genres have many artists via the association table artist_genres.
type Genre struct {
	Name string `gorm:"primaryKey"`
	URL  string

	CreatedAt time.Time
}
