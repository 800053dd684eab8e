package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quickkiraana/kiraana/config"
	"github.com/quickkiraana/kiraana/database/seeders"
	"github.com/quickkiraana/kiraana/internal/server"
	"github.com/quickkiraana/kiraana/pkg/migration"
)

// openStore loads config and opens the configured store.
func openStore(ctx context.Context) (*server.Store, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	return server.OpenStore(ctx)
}

// withMigrator runs fn against the SQL store.
func withMigrator(cmd *cobra.Command, fn func(*migration.Runner) error) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if store.SQL == nil {
		return errors.New("migrations apply only to STORE_DRIVER=sql")
	}
	return fn(migration.New(store.SQL, cmd.OutOrStdout()))
}

// kiraana migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		return withMigrator(cmd, (*migration.Runner).Run)
	},
}

// kiraana migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
		return withMigrator(cmd, (*migration.Runner).Rollback)
	},
}

// kiraana migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, (*migration.Runner).Status)
	},
}

// kiraana seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo shops",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if store.SQL != nil {
			if err := migration.New(store.SQL, cmd.OutOrStdout()).Run(); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(cmd.Context(), store.Stores, cmd.OutOrStdout())
	},
}
