// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// maxAttempts stops the sweep from retrying a run that keeps failing. Such
// runs are no longer listed as stale and stay in billing.enrollment_run for
// an operator (`coursectl recover --transaction`).
const maxAttempts = 10

// resumer is the part of [Pipeline] the sweep drives.
type resumer interface {
	StaleRuns(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Run, error)
	Resume(ctx context.Context, transactionID string) (*Result, error)
}

// RecoveryOptions configures the sweep.
type RecoveryOptions struct {
	Schedule   string        // cron expression with seconds, e.g. "0 */5 * * * *"
	StaleAfter time.Duration // runs untouched for this long are considered abandoned
	Batch      int           // max runs resumed per sweep
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Scanned   int `json:"scanned"`
	Resumed   int `json:"resumed"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"` // failed runs that used their last attempt
}

// Recovery periodically resumes enrollment runs that stopped midway.
type Recovery struct {
	pipeline resumer
	options  RecoveryOptions
	cron     *cron.Cron
	now      func() time.Time
	logger   *slog.Logger
}

// NewRecovery constructs the sweep. It does nothing until [Recovery.Start].
func NewRecovery(pipeline resumer, options RecoveryOptions, logger *slog.Logger) *Recovery {
	if options.Batch <= 0 {
		options.Batch = 50
	}
	return &Recovery{
		pipeline: pipeline,
		options:  options,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
		logger:   logger,
	}
}

// Start registers the sweep on its schedule and starts the scheduler.
func (recovery *Recovery) Start() error {
	_, err := recovery.cron.AddFunc(recovery.options.Schedule, func() {
		recovery.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid recovery schedule %q: %w", recovery.options.Schedule, err)
	}

	recovery.cron.Start()
	recovery.logger.Info("enrollment_recovery_started", slog.String("schedule", recovery.options.Schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep, or until ctx is done.
func (recovery *Recovery) Stop(ctx context.Context) {
	done := recovery.cron.Stop()
	select {
	case <-done.Done():
		recovery.logger.Info("enrollment_recovery_stopped")
	case <-ctx.Done():
		recovery.logger.Warn("enrollment_recovery_stop_timeout")
	}
}

/*
Sweep resumes one batch of stale runs. A run that fails again is logged and
the sweep moves on.
*/
func (recovery *Recovery) Sweep(ctx context.Context) SweepReport {
	var report SweepReport

	cutoff := recovery.now().UTC().Add(-recovery.options.StaleAfter)
	runs, err := recovery.pipeline.StaleRuns(ctx, cutoff, maxAttempts, recovery.options.Batch)
	if err != nil {
		recovery.logger.ErrorContext(ctx, "enrollment_recovery_list_failed", slog.Any("error", err))
		return report
	}

	for _, run := range runs {
		report.Scanned++

		if _, err := recovery.pipeline.Resume(ctx, run.TransactionID); err != nil {
			report.Failed++

			// Resume counted this attempt.
			if run.Attempts+1 >= maxAttempts {
				report.Abandoned++
				recovery.logger.WarnContext(ctx, "enrollment_run_abandoned",
					slog.String("transaction_id", run.TransactionID),
					slog.Int("attempts", run.Attempts+1),
					slog.Any("error", err),
				)
			}
			continue
		}
		report.Resumed++
	}

	if report.Scanned > 0 {
		recovery.logger.InfoContext(ctx, "enrollment_recovery_swept",
			slog.Int("scanned", report.Scanned),
			slog.Int("resumed", report.Resumed),
			slog.Int("failed", report.Failed),
			slog.Int("abandoned", report.Abandoned),
		)
	}
	return report
}
