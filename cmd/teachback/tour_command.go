package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"teachback/internal/persistence"
	"teachback/internal/tour"
)

func newTourCommand(ctx *commandContext) *cobra.Command {
	tourCmd := &cobra.Command{
		Use:   "tour",
		Short: "Inspect or reset the guided tour",
		Long:  "The tour runs inside 'teachback app'. These commands show its steps and whether it has been completed.",
	}

	tourCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the tour has been completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := ctx.store()
			if err != nil {
				return err
			}
			done, err := persistence.NewTourFlag(kv).Completed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if done {
				fmt.Fprintln(out, renderStatusLine("Tour", statusOK, "Completed", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Tour", statusInfo, "Not completed; it will be offered in 'teachback app'", colorize))
			}
			rows := make([][]string, 0)
			for i, step := range tour.Steps() {
				tab := "any"
				if step.RequiredTab != "" {
					tab = step.RequiredTab.Label()
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), step.Title, tab})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Step", "Tab"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	})

	tourCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Offer the tour again on the next app start",
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := ctx.store()
			if err != nil {
				return err
			}
			if err := persistence.NewTourFlag(kv).Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tour reset; it will be offered the next time you run 'teachback app'")
			return nil
		},
	})

	return tourCmd
}
