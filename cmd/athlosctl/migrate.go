package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create indexes (mongo) or the schema (postgres)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := backend.Migrate(cmd.Context()); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s migrated\n", backend.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
