package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "strokerisk",
		Short:         "Stroke risk scoring",
		Long:          "strokerisk scores a single patient record with a trained classifier artifact and manages the audit database.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newCertsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}
