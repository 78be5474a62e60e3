package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/alerting"
	"github.com/bher20/ecoenergy/internal/cron"
)

var (
	snapshotSchedule string
	snapshotOnce     bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Append the current monthly total of every account to its history",
	Long: `Runs the history snapshot. With --schedule, or a configured snapshot
schedule, it keeps running; the schedule is a number of seconds, a Go
duration or a five-field cron expression. Without one, or with --once, it
runs a single time.`,
	Args: cobra.NoArgs,
	RunE: withApp(runSnapshot),
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotSchedule, "schedule", "", "keep running on this schedule (default: the configured one)")
	snapshotCmd.Flags().BoolVar(&snapshotOnce, "once", false, "run a single time and exit")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string, a *app) error {
	worker := cron.NewSnapshotWorker(a.store, a.consumption, alerting.NewAlerter(a.cfg.Alerts, a.log), a.cfg.Snapshot.State, a.log)

	setting := snapshotSchedule
	if setting == "" {
		setting = a.cfg.Snapshot.Schedule
	}
	if snapshotOnce || setting == "" {
		res, err := worker.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d accounts, skipped %d without appliances\n", res.Recorded, res.Skipped)
		return nil
	}

	sched, err := cron.ParseSchedule(setting)
	if err != nil {
		return err
	}
	if err := worker.Run(cmd.Context(), sched); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
