package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amonks/taggraph/fetcher"
	"github.com/amonks/taggraph/subcmd"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func report(ctx context.Context, app *app, args []string) error {
	subcmd := subcmd.New("report", "report what's been collected so far")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	progress, err := fetcher.New(app.db, nil, app.fetcherOptions(nil)).Report(ctx)
	if err != nil {
		return err
	}

	printSection("genres", progress.Genres, map[string]int{
		"artist links": progress.ArtistGenres,
	})
	printSection("artists", progress.Artists, nil)
	printSection("tracks", progress.Tracks, nil)

	if len(progress.Runs) == 0 {
		return nil
	}
	printer.Printf("RUNS\n")
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, run := range progress.Runs {
		status := "interrupted"
		if run.FinishedAt.Valid {
			status = "finished in " + run.FinishedAt.Time.Sub(run.StartedAt).Round(time.Second).String()
		}
		if run.Error != "" {
			status = "failed: " + run.Error
		}
		printer.Fprintf(tw, "  %s\t%s\t%s\t%d found\t%s\n", run.StartedAt.Format(time.DateTime), run.Kind, run.ID, run.Discovered, status)
	}
	return tw.Flush()
}

func printSection(name string, known int, related map[string]int) {
	printer.Printf("%s\n", strings.ToUpper(name))
	printer.Printf("  %d\tknown\n", known)
	for k, v := range related {
		printer.Printf("  %d\t%s\n", v, k)
	}
	printer.Printf("\n")
}
