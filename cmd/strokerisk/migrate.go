package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibhealth/strokerisk/internal/infrastructure/config"
	"github.com/bibhealth/strokerisk/migrations"
	pgutil "github.com/bibhealth/strokerisk/pkg/postgres"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the audit database schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", config.Load().DatabaseURL, "PostgreSQL connection URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pgutil.RunMigrations(databaseURL, migrations.FS, "."); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pgutil.RunMigrationsDown(databaseURL, migrations.FS, "."); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		},
	})

	return cmd
}
