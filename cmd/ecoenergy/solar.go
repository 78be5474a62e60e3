package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/solar"
)

var solarInput solar.Input

var solarCmd = &cobra.Command{
	Use:   "solar",
	Short: "Estimate the payback of a solar installation",
	Args:  cobra.NoArgs,
	RunE:  runSolar,
}

func init() {
	f := solarCmd.Flags()
	f.IntVar(&solarInput.Panels, "panels", 0, "number of panels")
	f.Float64Var(&solarInput.DailyKWhPerPanel, "daily-kwh", 0, "daily production per panel in kWh")
	f.Float64Var(&solarInput.InstallationCost, "cost", 0, "installation cost in R$")
	rootCmd.AddCommand(solarCmd)
}

func runSolar(cmd *cobra.Command, args []string) error {
	res, ok, err := solar.Estimate(solarInput)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintln(out, "Informe o número de painéis e a produção diária para calcular a economia.")
		return nil
	}
	fmt.Fprintf(out, "Produção mensal: %.2f kWh\n", res.MonthlyProductionKWh)
	fmt.Fprintf(out, "Economia mensal: R$ %.2f\n", res.MonthlySavings)
	if res.Recoups() {
		fmt.Fprintf(out, "Retorno do investimento: %.1f meses\n", res.MonthsToRecoup)
	} else {
		fmt.Fprintln(out, "Retorno do investimento: nunca")
	}
	return nil
}
