package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/scpscraper/internal/app"
)

// NewHTMLCmd creates the raw capture command.
func NewHTMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Capture the raw content block of a range of pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, func(ctx context.Context, a *app.App, r app.Range) (*app.Report, error) {
				return a.ScrapeHTML(ctx, r)
			})
		},
	}
	addBatchFlags(cmd)
	cmd.Flags().BoolP("markdown", "m", false, "Render captured blocks as Markdown")
	return cmd
}
