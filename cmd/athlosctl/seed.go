package main

import (
	"fmt"

	"athlos/fitness-tracker/internal/seed"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data",
}

var seedExercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Add the built-in exercise library; existing names are skipped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		added, err := seed.SeedExercises(cmd.Context(), backend.Repos.Exercises)
		if err != nil {
			return fmt.Errorf("seed exercises: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %d exercises added\n", added)
		return nil
	},
}

func init() {
	seedCmd.AddCommand(seedExercisesCmd)
	rootCmd.AddCommand(seedCmd)
}
