package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/ecoenergy/internal/notification"
	"github.com/bher20/ecoenergy/internal/report"
)

var reportEmail string

var reportCmd = &cobra.Command{
	Use:   "report <username>",
	Short: "Write the PDF report, optionally mailing it",
	Long: `Writes <username>_relatorio.pdf to the report directory. With --email the
report is also sent through the configured mail provider.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runReport),
}

func init() {
	reportCmd.Flags().StringVar(&reportEmail, "email", "", "also mail the report to this address")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string, a *app) error {
	username := args[0]
	path, err := a.reports.WriteFile(cmd.Context(), username)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Relatório salvo em %s\n", path)

	if reportEmail == "" {
		return nil
	}
	pdf, err := a.reports.PDF(cmd.Context(), username)
	if err != nil {
		return err
	}
	mailer := notification.NewService(a.cfg.Mail, a.log)
	if err := mailer.Send(cmd.Context(), notification.ReportMessage(reportEmail, username, report.Filename(username), pdf)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Relatório enviado para %s\n", reportEmail)
	return nil
}
