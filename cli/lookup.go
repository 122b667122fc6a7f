package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/amonks/taggraph/lastfm"
	"github.com/amonks/taggraph/subcmd"
)

const lookupKinds = "top-tags, artist-tags, album-tags, track-tags, similar-tags, artist-albums, tag-artists, country-artists"

// lookup asks last.fm directly, without touching the database.
func lookup(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("lookup", "query last.fm directly, without storing anything")
	subcmd.SetArg("kind", "string", "one of "+lookupKinds)
	var (
		artist  = subcmd.String("artist", "", "artist name")
		album   = subcmd.String("album", "", "album name (album-tags)")
		track   = subcmd.String("track", "", "track name (track-tags)")
		tag     = subcmd.String("tag", "", "tag name (similar-tags, tag-artists)")
		country = subcmd.String("country", "", "country name (country-artists)")
		limit   = subcmd.Int("limit", 20, "max results, for methods that take a limit")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	kind, err := subcmd.Arg()
	if err != nil {
		return err
	}
	if err := app.cfg.RequireAPIKey(); err != nil {
		return err
	}

	cache, err := app.cache()
	if err != nil {
		return err
	}
	defer cache.Close()
	client := app.client(cache)

	switch kind {
	case "top-tags":
		return printTags(client.GetTopTags(ctx))
	case "artist-tags":
		return printTags(client.GetArtistTopTags(ctx, *artist))
	case "album-tags":
		return printTags(client.GetAlbumTopTags(ctx, *artist, *album))
	case "track-tags":
		return printTags(client.GetTrackTopTags(ctx, *artist, *track))
	case "similar-tags":
		return printTags(client.GetSimilarTags(ctx, *tag))
	case "artist-albums":
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, album := range client.GetArtistTopAlbums(ctx, *artist, *limit) {
			printer.Fprintf(tw, "%s\t%d plays\t%s\n", album.Name, album.Playcount, album.URL)
		}
		return tw.Flush()
	case "tag-artists":
		return printArtists(client.GetTopArtistsByGenre(ctx, *tag, *limit))
	case "country-artists":
		return printArtists(client.GetTopArtistsByCountry(ctx, *country, *limit))
	default:
		return fmt.Errorf("unknown lookup '%s'; choose from %s", kind, lookupKinds)
	}
}

func printTags(tags []lastfm.TagSummary) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, tag := range tags {
		printer.Fprintf(tw, "%s\t%d\t%s\n", tag.Name, tag.Count, tag.URL)
	}
	return tw.Flush()
}

func printArtists(artists []lastfm.ArtistSummary) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, artist := range artists {
		printer.Fprintf(tw, "%s\t%d listeners\t%s\n", artist.Name, artist.Listeners, artist.URL)
	}
	return tw.Flush()
}
