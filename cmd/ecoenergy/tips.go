package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/advisor"
)

var tipsGuides bool

var tipsCmd = &cobra.Command{
	Use:   "tips [kwh]",
	Short: "Savings tips for a monthly total, or the appliance guides",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTips,
}

func init() {
	tipsCmd.Flags().BoolVar(&tipsGuides, "guides", false, "print the appliance tips and the tutorial")
	rootCmd.AddCommand(tipsCmd)
}

func runTips(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if tipsGuides || len(args) == 0 {
		for _, group := range [][]advisor.Topic{advisor.Tutorial(), advisor.ApplianceTips()} {
			for _, t := range group {
				fmt.Fprintf(out, "%s\n", t.Title)
				for _, item := range t.Items {
					fmt.Fprintf(out, "  - %s\n", item)
				}
			}
		}
		return nil
	}
	kwh, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid kwh %q: %w", args[0], err)
	}
	adv := advisor.AdviceFor(kwh)
	fmt.Fprintf(out, "Nível: %s\n", adv.Tier)
	for _, tip := range adv.Tips {
		fmt.Fprintf(out, "- %s\n", tip)
	}
	return nil
}
