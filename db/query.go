package db

import (
	"context"
	"fmt"

	"github.com/amonks/taggraph/data"
)

// GetGenres returns every flushed genre, in name order.
func (db *DB) GetGenres(ctx context.Context) ([]data.Genre, error) {
	var genres []data.Genre
	if err := db.
		WithContext(ctx).
		Order("name").
		Find(&genres).
		Error; err != nil {
		return nil, fmt.Errorf("error getting genres: %w", err)
	}
	return genres, nil
}

// GetArtistsByGenre returns the artists tagged with the given genre.
func (db *DB) GetArtistsByGenre(ctx context.Context, genreName string) ([]data.Artist, error) {
	var artists []data.Artist
	if err := db.
		WithContext(ctx).
		Joins("join artist_genres on artist_genres.artist_name = artists.name").
		Where("artist_genres.genre_name = ?", genreName).
		Order("artists.name").
		Find(&artists).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artists of genre '%s': %w", genreName, err)
	}
	return artists, nil
}

// GetGenresByArtist returns the genres the given artist is tagged with.
func (db *DB) GetGenresByArtist(ctx context.Context, artistName string) ([]data.Genre, error) {
	var genres []data.Genre
	if err := db.
		WithContext(ctx).
		Joins("join artist_genres on artist_genres.genre_name = genres.name").
		Where("artist_genres.artist_name = ?", artistName).
		Order("genres.name").
		Find(&genres).
		Error; err != nil {
		return nil, fmt.Errorf("error getting genres of artist '%s': %w", artistName, err)
	}
	return genres, nil
}

func (db *DB) GetTracksByArtist(ctx context.Context, artistName string) ([]data.Track, error) {
	var tracks []data.Track
	if err := db.
		WithContext(ctx).
		Where("artist_name = ?", artistName).
		Order("rank, name").
		Find(&tracks).
		Error; err != nil {
		return nil, fmt.Errorf("error getting tracks of artist '%s': %w", artistName, err)
	}
	return tracks, nil
}
