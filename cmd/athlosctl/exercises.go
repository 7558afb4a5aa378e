package main

import (
	"fmt"

	"athlos/fitness-tracker/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var deletePolicy string

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Manage the exercise library",
}

var exercisesDeleteCmd = &cobra.Command{
	Use:   "delete <exerciseId>",
	Short: "Delete an exercise and detach or remove the plan items using it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := primitive.ObjectIDFromHex(args[0])
		if err != nil {
			return fmt.Errorf("invalid exercise id %q", args[0])
		}

		policy := deletePolicy
		if policy == "" {
			policy = cfg.Exercises.DeletePolicy
		}
		switch policy {
		case config.DeletePolicyDetach, config.DeletePolicyCascade:
		default:
			return fmt.Errorf("unknown delete policy %q", policy)
		}

		report, err := exerciseService(policy, cliMetrics()).DeleteExercise(cmd.Context(), id)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
			"✓ exercise deleted (%s): %d items detached, %d items removed, %d goals detached\n",
			policy, report.ItemsDetached, report.ItemsRemoved, report.GoalsDetached)
		return nil
	},
}

func init() {
	exercisesDeleteCmd.Flags().StringVar(&deletePolicy, "policy", "", "detach or cascade; defaults to exercises.delete_policy")
	exercisesCmd.AddCommand(exercisesDeleteCmd)
	rootCmd.AddCommand(exercisesCmd)
}
