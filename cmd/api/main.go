// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Academia HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL, run migrations, connect to Redis (internal/app).
//  4. Wire HTTP handlers.
//  5. Start the enrollment recovery sweep.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/academia/internal/app"
	"github.com/taibuivan/academia/internal/platform/config"
	"github.com/taibuivan/academia/internal/platform/constants"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := app.NewLogger(false)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = app.NewLogger(true)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Stores & Services ──────────────────────────────────────────────
	application, err := app.New(startupCtx, cfg, log)
	must(log, err, "initialize application")
	defer application.Close()

	// ── 4. HTTP Server ────────────────────────────────────────────────────
	server, limiter, err := application.Server()
	must(log, err, "build http server")

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go limiter.Sweep(backgroundCtx)

	// ── 5. Recovery Sweep ─────────────────────────────────────────────────
	if cfg.RecoveryEnabled {
		must(log, application.Recovery.Start(), "start enrollment recovery")
	}

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}

	if cfg.RecoveryEnabled {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		application.Recovery.Stop(stopCtx)
		cancel()
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
