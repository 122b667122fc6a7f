package data

// An ArtistGenre represents a many-to-many relationship between artists and
// genres. A row means the artist is in the genre and the genre contains the
// artist; there is no one-sided edge.
type ArtistGenre struct {
	ArtistName string `gorm:"primaryKey"`
	GenreName  string `gorm:"primaryKey"`
}
