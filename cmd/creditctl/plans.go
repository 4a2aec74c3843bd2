package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jobxpress/creditgate/internal/domain/plan"
)

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Print the plan catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PLAN\tNAME\tCREDITS\tRESET\tPRICE\tASSISTANT")
			for _, f := range plan.All() {
				limit := "per session"
				if f.Assistant.IsDailyLimit {
					limit = "per day"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%dd\t€%s\t%d msgs %s\n",
					f.Plan, f.Name, f.Credits, f.ResetDays, f.Price(), f.Assistant.MaxMessages, limit)
			}
			return tw.Flush()
		},
	}
}
