package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/catalog"
	"github.com/bher20/ecoenergy/internal/energy"
)

var (
	applianceName     string
	applianceWatts    float64
	applianceHours    float64
	applianceQuantity int
	applianceArea     string
)

var applianceCmd = &cobra.Command{
	Use:   "appliance",
	Short: "Manage the appliances of an account",
}

var applianceAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add an appliance",
	Long: `Adds an appliance. When --watts is omitted the typical wattage from the
catalog is used.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runApplianceAdd),
}

var applianceListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List appliances in insertion order",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runApplianceList),
}

var applianceResetCmd = &cobra.Command{
	Use:   "reset <username>",
	Short: "Remove every appliance (history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runApplianceReset),
}

func init() {
	f := applianceAddCmd.Flags()
	f.StringVar(&applianceName, "name", "", "appliance name")
	f.Float64Var(&applianceWatts, "watts", 0, "power in watts")
	f.Float64Var(&applianceHours, "hours", 0, "hours of use per day")
	f.IntVar(&applianceQuantity, "quantity", 1, "number of units")
	f.StringVar(&applianceArea, "area", "", "area of the house")
	_ = applianceAddCmd.MarkFlagRequired("name")

	applianceCmd.AddCommand(applianceAddCmd, applianceListCmd, applianceResetCmd)
	rootCmd.AddCommand(applianceCmd)
}

func runApplianceAdd(cmd *cobra.Command, args []string, a *app) error {
	watts := applianceWatts
	if !cmd.Flags().Changed("watts") {
		w, ok := catalog.TypicalWatts(applianceName)
		if !ok {
			return fmt.Errorf("no typical wattage for %q, pass --watts", applianceName)
		}
		watts = w
	}
	added, err := a.consumption.AddAppliance(cmd.Context(), args[0], energy.Appliance{
		Name:        applianceName,
		PowerWatts:  watts,
		HoursPerDay: applianceHours,
		Quantity:    applianceQuantity,
		Area:        energy.Area(applianceArea),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%.0f W, %.1f h/day x%d, %s): %.2f kWh/month\n",
		added.Name, added.PowerWatts, added.HoursPerDay, added.Quantity, added.Area, energy.MonthlyKWh(added))
	return nil
}

func runApplianceList(cmd *cobra.Command, args []string, a *app) error {
	list, err := a.consumption.Appliances(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No appliances")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tWATTS\tHOURS/DAY\tQTY\tAREA\tKWH/MONTH")
	for _, ap := range list {
		fmt.Fprintf(tw, "%s\t%.0f\t%.1f\t%d\t%s\t%.2f\n", ap.Name, ap.PowerWatts, ap.HoursPerDay, ap.Quantity, ap.Area, energy.MonthlyKWh(ap))
	}
	return tw.Flush()
}

func runApplianceReset(cmd *cobra.Command, args []string, a *app) error {
	if err := a.consumption.Reset(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed every appliance of %s\n", args[0])
	return nil
}
