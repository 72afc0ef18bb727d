// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/academia/internal/app"
	"github.com/taibuivan/academia/internal/platform/config"
	"github.com/taibuivan/academia/internal/platform/migration"
)

func newRunner(cmd *cobra.Command) (*migration.Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = cfg.MigrationPath
	}
	return migration.NewRunner(cfg.DatabaseURL, path, app.NewLogger(cfg.Debug)), nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().String("path", "", "migrations directory (defaults to MIGRATION_PATH)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			return runner.Up()
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			return runner.Down(steps)
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := runner.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	})

	return cmd
}
