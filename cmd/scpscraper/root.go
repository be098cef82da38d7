package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/scpscraper/internal/app"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scpscraper",
		Short: "Scrape SCP wiki pages into text corpora",
		Long: `scpscraper fetches numbered SCP pages, extracts their sections and writes
them to per-category text files suitable for language model training.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.StringP("config", "c", "", "Path to a YAML or JSON config file")
	pf.StringSlice("env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	pf.String("base-url", "", "Wiki origin (default "+app.DefaultConfig().BaseURL+")")
	pf.String("user-agent", "", "User-Agent sent with every request")
	pf.String("cache-dir", "", "Page cache directory (default under the XDG cache home)")
	pf.Bool("no-cache", false, "Disable the page cache")
	pf.Bool("cache-clear", false, "Clear the page cache before running")
	pf.Duration("cache-max-age", 0, "Purge cache entries older than this (0 keeps all)")
	pf.IntP("concurrency", "j", 0, "Pages fetched in parallel (default 4)")
	pf.Float64("rate", 0, "Maximum requests per second (0 is unlimited)")
	pf.Duration("timeout", 0, "Per request timeout (default 20s)")
	pf.Bool("ignore-robots", false, "Do not fetch or honor robots.txt")

	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)
	}

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewHTMLCmd())
	cmd.AddCommand(NewGetCmd())
	cmd.AddCommand(NewNameCmd())
	return cmd
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
