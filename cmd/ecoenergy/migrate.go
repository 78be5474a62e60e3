package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQL schema of the sqlite and postgres backends",
}

func init() {
	for _, c := range []struct {
		use, short string
		run        func(cmd *cobra.Command, driver, dsn string) error
	}{
		{"up", "Apply every pending migration", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Up(cmd.Context(), driver, dsn)
		}},
		{"down", "Roll back the latest migration", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Down(cmd.Context(), driver, dsn)
		}},
		{"status", "Show the state of every migration", func(cmd *cobra.Command, driver, dsn string) error {
			if err := migrate.Status(cmd.Context(), driver, dsn); err != nil {
				return err
			}
			v, err := migrate.Version(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", v)
			return nil
		}},
	} {
		c := c
		migrateCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return c.run(cmd, cfg.DB.Driver, cfg.DB.DSN)
			},
		})
	}
	rootCmd.AddCommand(migrateCmd)
}
