package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/storage"
)

var (
	registerPassword string
	registerAdmin    bool
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runRegister),
}

func init() {
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password")
	registerCmd.Flags().BoolVar(&registerAdmin, "admin", false, "grant the admin role")
	_ = registerCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string, a *app) error {
	role := storage.RoleUser
	if registerAdmin {
		role = storage.RoleAdmin
	}
	acc, err := a.auth.RegisterWithRole(cmd.Context(), args[0], registerPassword, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", acc.Username, acc.Role)
	return nil
}
