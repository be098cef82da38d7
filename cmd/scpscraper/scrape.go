package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/scpscraper/internal/app"
)

// NewScrapeCmd creates the section scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract sections of a range of pages into category files",
		Long: `Fetch every page in [start, end), extract its sections and write
descriptions, containment procedures, addenda and titles to the output
directory. Lines repeated across the corpus are removed after the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, func(ctx context.Context, a *app.App, r app.Range) (*app.Report, error) {
				return a.Scrape(ctx, r)
			})
		},
	}
	addBatchFlags(cmd)
	return cmd
}

func addBatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("start", "s", 0, "First identifier")
	f.IntP("end", "e", 1000, "Identifier after the last one")
	f.StringP("output", "o", "", "Output directory (default current directory)")
	f.StringSliceP("tags", "t", nil, "Only keep pages carrying one of these tags")
	f.BoolP("dataset", "d", false, "Redact identifiers and add end-of-text delimiters")
	f.String("db", "", "Also save records to this SQLite database")
	f.Bool("drive-copy", false, "Copy outputs to the mounted drive when done")
	f.String("drive-mount", "", "Drive mount point (default /content/drive)")
}

type batchFunc func(context.Context, *app.App, app.Range) (*app.Report, error)

func runBatch(cmd *cobra.Command, run batchFunc) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := run(ctx, a, app.Range{Start: cfg.Start, End: cfg.End})
	if rep != nil {
		printReport(cmd.OutOrStdout(), rep)
	}
	return err
}

func printReport(w io.Writer, rep *app.Report) {
	fmt.Fprintf(w, "run %s: %d processed, %d written, %d filtered, %d failed, %d skipped\n",
		rep.RunID, rep.Processed, rep.Written, rep.Filtered, rep.Failed, rep.Skipped)
	for _, f := range rep.Files {
		fmt.Fprintf(w, "  %s\t%d lines\n", f.Name, f.Lines)
	}
}
