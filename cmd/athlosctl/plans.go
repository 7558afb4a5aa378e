package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBrokenPlans = errors.New("some plans have non-dense item positions")

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect and repair workout plans",
}

var plansVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every plan's items are numbered 1..N",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := planService().VerifyPlans(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		broken := 0
		for _, r := range reports {
			if r.Err == nil {
				continue
			}
			broken++
			color.New(color.FgYellow).Fprintf(out, "⚠ plan %s (user %s, %d items): %v\n",
				r.PlanID.Hex(), r.UserID.Hex(), r.Items, r.Err)
		}
		if broken > 0 {
			return fmt.Errorf("%w: %d of %d", errBrokenPlans, broken, len(reports))
		}
		color.New(color.FgGreen).Fprintf(out, "✓ %d plans checked\n", len(reports))
		return nil
	},
}

var plansRepairCmd = &cobra.Command{
	Use:   "repair <planId>",
	Short: "Renumber a plan's items to 1..N keeping their relative order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := primitive.ObjectIDFromHex(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[0])
		}
		res, err := planService().RepairPlan(cmd.Context(), planID)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ plan %s repaired, %d items moved\n", planID.Hex(), res.Shifted)
		return nil
	},
}

func init() {
	plansCmd.AddCommand(plansVerifyCmd, plansRepairCmd)
	rootCmd.AddCommand(plansCmd)
}
