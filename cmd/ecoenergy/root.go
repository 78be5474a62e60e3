package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/auth"
	"github.com/bher20/ecoenergy/internal/config"
	"github.com/bher20/ecoenergy/internal/consumption"
	"github.com/bher20/ecoenergy/internal/logging"
	"github.com/bher20/ecoenergy/internal/rates"
	"github.com/bher20/ecoenergy/internal/report"
	"github.com/bher20/ecoenergy/internal/storage"
)

var (
	cfgFile   string
	driverArg string
	dsnArg    string
)

var rootCmd = &cobra.Command{
	Use:   "ecoenergy",
	Short: "Household electricity consumption calculator",
	Long: `EcoEnergy keeps a list of household appliances per account, estimates the
monthly consumption and electricity bill, records a monthly history and
renders charts and PDF reports. It runs as an HTTP API (serve) or from the
command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: $ECOENERGY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&driverArg, "driver", "", "storage driver: memory, file, sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&dsnArg, "dsn", "", "storage DSN or file path")
}

// loadConfig reads .env, the config file and the environment, then applies
// the global flags.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	path := cfgFile
	if path == "" {
		path = os.Getenv("ECOENERGY_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if driverArg != "" {
		if driverArg != cfg.DB.Driver && dsnArg == "" {
			// The configured DSN belongs to another backend.
			cfg.DB.DSN = ""
		}
		cfg.DB.Driver = driverArg
	}
	if dsnArg != "" {
		cfg.DB.DSN = dsnArg
	}
	return cfg, cfg.Validate()
}

// app holds the services every command is built from.
type app struct {
	cfg         config.Config
	log         *zap.Logger
	store       storage.Storage
	auth        *auth.Service
	consumption *consumption.Service
	reports     *report.Service
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	tariffs, err := rates.Load(cfg.Tariffs.JSON, cfg.Tariffs.PDF)
	if err != nil {
		log.Warn("tariff overrides skipped", zap.Error(err))
	}

	store, err := storage.Open(ctx, storage.Config{Driver: cfg.DB.Driver, DSN: cfg.DB.DSN, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	authSvc, err := auth.NewService(store, auth.Options{TokenTTL: cfg.TokenTTL, Logger: log})
	if err != nil {
		store.Close()
		return nil, err
	}
	cons := consumption.NewService(store, tariffs, log)
	return &app{
		cfg:         cfg,
		log:         log,
		store:       store,
		auth:        authSvc,
		consumption: cons,
		reports:     report.NewService(cons, cfg.ReportDir, log),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close storage", zap.Error(err))
	}
	_ = a.log.Sync()
}

// withApp runs fn with a fully wired app.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
