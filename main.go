package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "awazgram",
		Short: "AwazGram - village complaint registration and tracking",
		Long:  `AwazGram server: public complaint submission and tracking, village-scoped administration, and account management commands.`,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newCreateAdminCommand(),
		newCreateSuperuserCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
