package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/rates"
)

var tariffsCmd = &cobra.Command{
	Use:   "tariffs [state]",
	Short: "Print the state tariff table, or the rate of one state",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runTariffs),
}

func init() {
	rootCmd.AddCommand(tariffsCmd)
}

func runTariffs(cmd *cobra.Command, args []string, a *app) error {
	table := a.consumption.Tariffs()
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		fmt.Fprintf(out, "%s: R$ %.3f/kWh\n", args[0], table.Rate(args[0]))
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tR$/KWH")
	for _, r := range table.Rates() {
		fmt.Fprintf(tw, "%s\t%.3f\n", r.State, r.RatePerKWh)
	}
	fmt.Fprintf(tw, "(other)\t%.3f\n", rates.DefaultRate)
	return tw.Flush()
}
