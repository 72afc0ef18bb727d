// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app is the composition root shared by the API server and the
operator CLI.

[New] connects the stores and builds the domain services every entry point
needs. [App.Server] adds what only the HTTP server needs (object storage,
the payment processor, rate limiting) and returns a ready [api.Server].

No business logic lives here. All wiring is explicit constructor injection.
*/
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/academia/internal/api"
	"github.com/taibuivan/academia/internal/billing/enrollment"
	"github.com/taibuivan/academia/internal/billing/payment"
	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/catalog/upload"
	"github.com/taibuivan/academia/internal/platform/authz"
	"github.com/taibuivan/academia/internal/platform/config"
	"github.com/taibuivan/academia/internal/platform/constants"
	"github.com/taibuivan/academia/internal/platform/middleware"
	"github.com/taibuivan/academia/internal/platform/migration"
	pgstore "github.com/taibuivan/academia/internal/platform/postgres"
	redisstore "github.com/taibuivan/academia/internal/platform/redis"
	"github.com/taibuivan/academia/internal/platform/sec"
	"github.com/taibuivan/academia/pkg/uuid"
)

// App holds the long-lived collaborators of one process.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Cache *goredis.Client // nil when REDIS_URL is empty

	Authorizer *authz.Authorizer
	Courses    *course.Service
	Payments   *payment.Service // nil without STRIPE_SECRET_KEY
	Pipeline   *enrollment.Pipeline
	Recovery   *enrollment.Recovery

	closers []func()
}

// NewLogger builds the process logger: JSON to stdout, tagged with the app name.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

/*
New connects PostgreSQL (and Redis when configured), applies migrations when
AUTO_MIGRATE is set, and builds the course and enrollment services.

Returns:
  - *App: Call [App.Close] when done
  - error: The first startup failure
*/
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Authorizer: authz.New()}

	// ── 1. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, cfg.StoreTimeout, logger)
	if err != nil {
		return nil, err
	}
	app.Pool = pool
	app.closers = append(app.closers, func() {
		logger.Info("closing postgres pool")
		pool.Close()
	})

	// ── 2. Migrations ─────────────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := migration.NewRunner(cfg.DatabaseURL, cfg.MigrationPath, logger).Up(); err != nil {
			app.Close()
			return nil, err
		}
	}

	// ── 3. Redis (optional) ───────────────────────────────────────────────
	if cfg.RedisURL != "" {
		cache, err := redisstore.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Cache = cache
		app.closers = append(app.closers, func() {
			logger.Info("closing redis client")
			if cerr := cache.Close(); cerr != nil {
				logger.Error("redis close error", slog.Any("error", cerr))
			}
		})
	}

	// ── 4. Catalog ────────────────────────────────────────────────────────
	courseRepository := course.NewCourseRepository(pool, cfg.StoreTimeout)
	if app.Cache != nil {
		courseRepository = course.NewCachedCourseRepository(courseRepository, app.Cache, cfg.CourseCacheTTL, logger)
	}
	app.Courses = course.NewService(courseRepository, app.Authorizer, uuid.New, logger)

	// ── 5. Payments ───────────────────────────────────────────────────────
	if cfg.StripeSecretKey != "" {
		app.Payments = payment.NewService(payment.NewStripeProcessor(cfg.StripeSecretKey), payment.Options{
			Currency:      cfg.Currency,
			MinimumAmount: cfg.MinimumAmount,
			Timeout:       cfg.PaymentTimeout,
		}, logger)
	}

	// ── 6. Enrollment ─────────────────────────────────────────────────────
	var verifier enrollment.PaymentVerifier
	if cfg.PaymentVerify && app.Payments != nil {
		verifier = app.Payments
	}
	if cfg.PaymentVerify && app.Payments == nil {
		logger.Warn("payment_verification_unavailable", slog.String("reason", "STRIPE_SECRET_KEY is not set"))
	}

	app.Pipeline = enrollment.NewPipeline(
		enrollment.NewRunRepository(pool, cfg.StoreTimeout),
		enrollment.NewTransactionRepository(pool, cfg.StoreTimeout),
		enrollment.NewProgressRepository(pool, cfg.StoreTimeout),
		app.Courses,
		verifier,
		uuid.New,
		logger,
	)

	app.Recovery = enrollment.NewRecovery(app.Pipeline, enrollment.RecoveryOptions{
		Schedule:   cfg.RecoverySchedule,
		StaleAfter: cfg.RecoveryStaleAfter,
		Batch:      cfg.RecoveryBatch,
	}, logger)

	return app, nil
}

/*
Server builds the HTTP server on top of the shared services.

Returns:
  - *api.Server: Ready to ListenAndServe
  - *middleware.RateLimiter: The caller runs its Sweep for the server's lifetime
  - error: Missing serving configuration or key/bucket setup failures
*/
func (app *App) Server() (*api.Server, *middleware.RateLimiter, error) {
	cfg := app.Config

	if err := cfg.ValidateServing(); err != nil {
		return nil, nil, err
	}

	// ── 1. Token Verification ─────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize jwt service: %w", err)
	}

	// ── 2. Object Storage ─────────────────────────────────────────────────
	presigner, err := upload.NewS3Presigner(upload.S3Config{
		Bucket:         cfg.S3Bucket,
		Region:         cfg.S3Region,
		Endpoint:       cfg.S3Endpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		ForcePathStyle: cfg.S3ForcePathStyle,
	})
	if err != nil {
		return nil, nil, err
	}
	issuer := upload.NewIssuer(presigner, cfg.CDNDomain, cfg.UploadURLTTL, uuid.New, app.Logger)

	// ── 3. Health ─────────────────────────────────────────────────────────
	deps := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, app.Pool) },
	}
	if app.Cache != nil {
		deps.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, app.Cache) }
	}
	liveness, readiness := api.NewHealthHandlers(deps, app.Logger)

	// ── 4. Handlers ───────────────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	server := api.NewServer(cfg, app.Logger, tokens, limiter, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Course:     course.NewHandler(app.Courses),
		Upload:     upload.NewHandler(issuer, app.Courses, app.Authorizer),
		Payment:    payment.NewHandler(app.Payments),
		Enrollment: enrollment.NewHandler(app.Pipeline, app.Authorizer),
	})

	return server, limiter, nil
}

// Close releases the stores in reverse order of acquisition.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
