// this program crawls last.fm for genres (tags), the artists tagged with
// them, and tracks, into a sqlite3 database file.
//
// see db/schema.sql for info about the resulting database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amonks/taggraph/config"
	"github.com/amonks/taggraph/db"
	"github.com/amonks/taggraph/logging"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var usage = strings.TrimSpace(`
usage: taggraph $cmd
valid $cmd are 'collect', 'tracks', 'report', 'genres', 'artists', 'tracks-of', 'lookup'
for help: taggraph $cmd -help
`)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		return errors.New(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger, closer := logging.New(cfg.Logging, os.Stderr)
	defer closer.Close()

	db, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	app := &app{cfg: cfg, log: logger, db: db}

	switch cmd {
	case "collect":
		return collect(ctx, app, args)

	case "tracks":
		return tracks(ctx, app, args)

	case "report":
		return report(ctx, app, args)

	case "genres":
		return genres(ctx, app, args)

	case "artists":
		return artists(ctx, app, args)

	case "tracks-of":
		return tracksOf(ctx, app, args)

	case "lookup":
		return lookup(ctx, app, args)

	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}
