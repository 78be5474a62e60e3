package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var calcState string

var calcCmd = &cobra.Command{
	Use:   "calc <username>",
	Short: "Show the monthly consumption, estimated bill and tips",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCalc),
}

func init() {
	calcCmd.Flags().StringVar(&calcState, "state", "", "state used to price the bill")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, args []string, a *app) error {
	sum, err := a.consumption.Summary(cmd.Context(), args[0], calcState)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Consumo Mensal Total: %.2f kWh\n", sum.Consumption.TotalKWh)
	for _, b := range sum.Breakdown {
		fmt.Fprintf(out, "  %-30s %10.2f kWh\n", b.Name, b.MonthlyKWh)
	}
	state := sum.Bill.State
	if state == "" {
		state = "padrão"
	}
	fmt.Fprintf(out, "Conta estimada (%s, R$ %.3f/kWh): R$ %s\n", state, sum.Bill.RatePerKWh, sum.Bill.Rounded)
	fmt.Fprintf(out, "Nível: %s\n", sum.Advice.Tier)
	for _, tip := range sum.Advice.Tips {
		fmt.Fprintf(out, "- %s\n", tip)
	}
	return nil
}
