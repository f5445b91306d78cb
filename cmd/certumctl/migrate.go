package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/certum/internal"
)

func newMigrateCmd(b backend) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := b.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := internal.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			version, err := internal.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
			return nil
		},
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Print the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := b.openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				version, err := internal.MigrationVersion(cmd.Context(), db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := b.openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				if err := internal.RollbackMigration(cmd.Context(), db); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
	)
	return migrateCmd
}
