// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running database schema migrations.
//
// # Architecture
//
// The API server applies pending UP migrations at startup (AUTO_MIGRATE) and
// the `coursectl migrate` command exposes up, down and version for operators.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Runner applies the SQL files under a migrations directory to one database.
type Runner struct {
	databaseURL string
	sourceURL   string
	logger      *slog.Logger
}

// NewRunner builds a Runner for dsn and the migrations directory at path.
func NewRunner(dsn, migrationsPath string, logger *slog.Logger) *Runner {
	return &Runner{
		databaseURL: toPgx5DSN(dsn),
		sourceURL:   "file://" + migrationsPath,
		logger:      logger,
	}
}

// open creates a migrator and returns a closer that logs close failures.
func (runner *Runner) open() (*migrate.Migrate, func(), error) {
	migrator, err := migrate.New(runner.sourceURL, runner.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("migration: failed to initialize: %w", err)
	}
	migrator.Log = &migrateLogger{logger: runner.logger}

	closer := func() {
		sourceError, dbError := migrator.Close()
		if sourceError != nil {
			runner.logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
		}
		if dbError != nil {
			runner.logger.Error("migration_db_close_failed", slog.Any("error", dbError))
		}
	}
	return migrator, closer, nil
}

// Up applies all pending UP migrations.
func (runner *Runner) Up() error {
	migrator, closer, err := runner.open()
	if err != nil {
		return err
	}
	defer closer()

	currentVersion, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}

	if isDirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", currentVersion)
	}

	runner.logger.Info("migration_started", slog.Int("current_version", int(currentVersion)))

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			runner.logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	newVersion, _, _ := migrator.Version()
	runner.logger.Info("migration_successful",
		slog.Int("from_version", int(currentVersion)),
		slog.Int("to_version", int(newVersion)),
	)

	return nil
}

// Down rolls back the given number of migrations.
func (runner *Runner) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migration: steps must be positive, got %d", steps)
	}

	migrator, closer, err := runner.open()
	if err != nil {
		return err
	}
	defer closer()

	if err := migrator.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: down failed: %w", err)
	}

	runner.logger.Info("migration_rolled_back", slog.Int("steps", steps))
	return nil
}

// Version reports the applied version and whether the database is dirty.
// A database with no migrations applied reports version 0.
func (runner *Runner) Version() (uint, bool, error) {
	migrator, closer, err := runner.open()
	if err != nil {
		return 0, false, err
	}
	defer closer()

	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration: failed to get current version: %w", err)
	}
	return version, dirty, nil
}

// toPgx5DSN ensures the DSN uses the pgx5:// scheme required by golang-migrate/v4.
func toPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger *slog.Logger
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return false
}
