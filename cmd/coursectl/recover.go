// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/academia/internal/app"
	"github.com/taibuivan/academia/internal/billing/enrollment"
	"github.com/taibuivan/academia/internal/platform/config"
)

var (
	recoverTransaction string
	recoverAll         bool
)

func recoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Resume enrollment runs that stopped midway",
		Long: `Resume enrollment runs that stopped midway.

Without flags this runs one sweep exactly as the server's schedule would.

Examples:
  coursectl recover
  coursectl recover --all
  coursectl recover --transaction pi_3Nx...`,
		Args: cobra.NoArgs,
		RunE: runRecover,
	}

	cmd.Flags().StringVar(&recoverTransaction, "transaction", "", "resume a single run by transaction id")
	cmd.Flags().BoolVar(&recoverAll, "all", false, "ignore RECOVERY_STALE_AFTER and resume every unfinished run")

	return cmd
}

func runRecover(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.AutoMigrate = false

	ctx := context.Background()
	logger := app.NewLogger(cfg.Debug)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")

	if recoverTransaction != "" {
		result, err := application.Pipeline.Resume(ctx, recoverTransaction)
		if err != nil {
			return fmt.Errorf("resume %s: %w", recoverTransaction, err)
		}
		return encoder.Encode(result)
	}

	options := enrollment.RecoveryOptions{
		Schedule:   cfg.RecoverySchedule,
		StaleAfter: cfg.RecoveryStaleAfter,
		Batch:      cfg.RecoveryBatch,
	}
	if recoverAll {
		options.StaleAfter = 0
	}

	report := enrollment.NewRecovery(application.Pipeline, options, logger).Sweep(ctx)
	return encoder.Encode(report)
}
