package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/amonks/taggraph/data"
	"github.com/amonks/taggraph/subcmd"
)

func genres(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("genres", "list collected genres")
	artist := subcmd.String("artist", "", "only list the genres of this artist")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	var (
		genres []data.Genre
		err    error
	)
	if *artist != "" {
		genres, err = app.db.GetGenresByArtist(ctx, *artist)
	} else {
		genres, err = app.db.GetGenres(ctx)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, genre := range genres {
		fmt.Fprintf(tw, "%s\t%s\n", genre.Name, genre.URL)
	}
	return tw.Flush()
}

func artists(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("artists", "list the artists tagged with a genre")
	subcmd.SetArg("genre", "string", "genre name, like 'hard rock' (required)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	genre, err := subcmd.Arg()
	if err != nil {
		return err
	}

	artists, err := app.db.GetArtistsByGenre(ctx, genre)
	if err != nil {
		return err
	}
	if len(artists) == 0 {
		fmt.Printf("no artists for '%s'\n", genre)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, artist := range artists {
		fmt.Fprintf(tw, "%s\t%s\n", artist.Name, artist.URL)
	}
	return tw.Flush()
}

func tracksOf(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("tracks-of", "list an artist's collected tracks")
	subcmd.SetArg("artist", "string", "artist name, exactly as last.fm spells it (required)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	artist, err := subcmd.Arg()
	if err != nil {
		return err
	}

	tracks, err := app.db.GetTracksByArtist(ctx, artist)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Printf("no tracks for '%s'\n", artist)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "rank\ttrack\tlisteners\turl\n")
	for _, track := range tracks {
		printer.Fprintf(tw, "%d\t%s\t%d\t%s\n", track.Rank, track.Name, track.Listeners, track.URL)
	}
	return tw.Flush()
}
