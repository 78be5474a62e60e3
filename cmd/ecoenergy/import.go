package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <user_data.json>",
	Short: "Copy a legacy JSON user file into the configured storage",
	Long: `Reads accounts, appliances and history from a legacy user_data.json file
and copies them into the storage selected by --driver/--dsn. Accounts that
already exist are skipped. Legacy SHA-256 password digests are kept and
upgraded to bcrypt on the next login.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runImport),
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string, a *app) error {
	src, err := storage.NewFileStorage(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer src.Close()

	copied, skipped, err := storage.Copy(cmd.Context(), a.store, src)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d accounts into %s storage\n", copied, a.cfg.DB.Driver)
	for _, u := range skipped {
		fmt.Fprintf(out, "Skipped %s (already exists)\n", u)
	}
	return nil
}
