package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bher20/ecoenergy/internal/alerting"
	"github.com/bher20/ecoenergy/internal/api"
	"github.com/bher20/ecoenergy/internal/cron"
	"github.com/bher20/ecoenergy/internal/migrate"
	"github.com/bher20/ecoenergy/internal/notification"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the JSON API, /metrics, health probes and API docs. When a snapshot
schedule is configured the history snapshot worker runs alongside.`,
	Args: cobra.NoArgs,
	RunE: withApp(runServe),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()

	if a.cfg.DB.AutoMigrate {
		switch err := migrate.Up(ctx, a.cfg.DB.Driver, a.cfg.DB.DSN); {
		case errors.Is(err, migrate.ErrNoSchema):
		case err != nil:
			a.log.Error("auto-migration failed", zap.Error(err))
		}
	}

	mux := api.NewMux(api.Deps{
		Store:       a.store,
		Consumption: a.consumption,
		Auth:        a.auth,
		Reports:     a.reports,
		Mailer:      notification.NewService(a.cfg.Mail, a.log),
		Logger:      a.log,
	})
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("EcoEnergy listening", zap.String("addr", srv.Addr), zap.String("driver", a.cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Snapshot.Schedule != "" {
		sched, err := cron.ParseSchedule(a.cfg.Snapshot.Schedule)
		if err != nil {
			return err
		}
		worker := cron.NewSnapshotWorker(a.store, a.consumption, alerting.NewAlerter(a.cfg.Alerts, a.log), a.cfg.Snapshot.State, a.log)
		g.Go(func() error {
			if err := worker.Run(gctx, sched); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
