package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Monthly consumption history",
}

var historyAppendCmd = &cobra.Command{
	Use:   "append <username>",
	Short: "Record the current monthly total as the next month",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runHistoryAppend),
}

var historyListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List recorded months",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runHistoryList),
}

func init() {
	historyCmd.AddCommand(historyAppendCmd, historyListCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryAppend(cmd *cobra.Command, args []string, a *app) error {
	e, err := a.consumption.RecordMonth(cmd.Context(), args[0], "cli")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mês %d: %.2f kWh\n", e.MonthIndex, e.ConsumptionKWh)
	return nil
}

func runHistoryList(cmd *cobra.Command, args []string, a *app) error {
	entries, err := a.consumption.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "Mês %3d  %10.2f kWh\n", e.MonthIndex, e.ConsumptionKWh)
	}
	return nil
}
