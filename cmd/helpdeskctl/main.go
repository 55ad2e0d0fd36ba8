package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "helpdeskctl",
		Short:        "Administrative tooling for the civic helpdesk",
		Long:         `helpdeskctl applies database migrations and seeds administrator accounts for the civic helpdesk service.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newCreateAdminCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
