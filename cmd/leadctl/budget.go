package main

import (
	"github.com/spf13/cobra"

	"github.com/ignite/leadgen-crm/internal/analytics"
)

// newBudgetCmd projects month-end spend from figures given on the command
// line. It needs no database.
func newBudgetCmd() *cobra.Command {
	var (
		spend  float64
		day    int
		days   int
		budget float64
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Project month-end spend against a budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := analytics.Project(spend, day, days, budget)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p, pretty)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&spend, "spend", 0, "Spend to date in USD")
	f.IntVar(&day, "day", 0, "Day of the period (1-based)")
	f.IntVar(&days, "days", 0, "Days in the period")
	f.Float64Var(&budget, "budget", 0, "Budget for the period in USD (0 for none)")
	f.BoolVar(&pretty, "pretty", false, "Indent JSON output")
	return cmd
}
