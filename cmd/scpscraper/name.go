package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/scpscraper/internal/app"
	"github.com/hyperifyio/scpscraper/internal/record"
)

// NewNameCmd creates the name lookup command.
func NewNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <id>",
		Short: "Print the series name of one identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			name, ok := a.Name(cmd.Context(), id)
			if !ok {
				return fmt.Errorf("no public name for SCP-%s", record.PadID(id))
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}
