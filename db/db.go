package db

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/amonks/taggraph/data"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB represents our sqlite3 database file, plus the entities a crawl has
// staged but not yet flushed.
type DB struct {
	*gorm.DB

	mu sync.Mutex

	// objects we've already looked up or created since the last flush
	artists map[string]data.Artist
	genres  map[string]data.Genre
	tracks  map[trackKey]data.Track

	// the artist_genres relation, indexed both ways; always updated together
	artistGenres map[string]map[string]struct{}
	genreArtists map[string]map[string]struct{}

	pendingArtists []data.Artist
	pendingGenres  []data.Genre
	pendingTracks  []data.Track
	pendingEdges   []data.ArtistGenre
}

type trackKey struct{ artist, name string }

//go:embed schema.sql
var schema string

// Open returns a connection to a migrated sqlite3 database file on disk,
// creating the file and running migrations if necessary.
func Open(filename string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(filename+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening db file at '%s': %w", filename, err)
	}

	db := &DB{DB: gdb}
	db.release()

	if err := db.Exec(schema).Error; err != nil {
		return nil, fmt.Errorf("error migrating db at '%s': %w", filename, err)
	}

	return db, nil
}

func (db *DB) Close() error {
	pool, err := db.DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// release forgets every object we've cached since the last flush. Must be
// called with mu held (or before the DB is shared).
func (db *DB) release() {
	db.artists = map[string]data.Artist{}
	db.genres = map[string]data.Genre{}
	db.tracks = map[trackKey]data.Track{}
	db.artistGenres = map[string]map[string]struct{}{}
	db.genreArtists = map[string]map[string]struct{}{}
}
