// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. In development an
optional `.env` file is loaded first via 'joho/godotenv'.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, S3, Stripe) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Academia API server and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL  string        `env:"DATABASE_URL,required,notEmpty"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE"   envDefault:"true"`

	// Key-Value Cache (Redis). Empty disables the course cache.
	RedisURL       string        `env:"REDIS_URL"`
	CourseCacheTTL time.Duration `env:"COURSE_CACHE_TTL" envDefault:"10m"`

	// Access token verification. The private key is only needed to mint tokens.
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`

	// Object Storage (S3-compatible)
	S3Bucket         string        `env:"S3_BUCKET_NAME"`
	S3Region         string        `env:"S3_REGION"            envDefault:"us-east-1"`
	S3Endpoint       string        `env:"S3_ENDPOINT"`
	S3AccessKey      string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string        `env:"S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE"  envDefault:"false"`
	CDNDomain        string        `env:"CLOUDFRONT_DOMAIN"`
	UploadURLTTL     time.Duration `env:"UPLOAD_URL_TTL"       envDefault:"60s"`

	// Payment processor (Stripe)
	StripeSecretKey string        `env:"STRIPE_SECRET_KEY"`
	PaymentVerify   bool          `env:"PAYMENT_VERIFY"   envDefault:"true"`
	PaymentTimeout  time.Duration `env:"PAYMENT_TIMEOUT"  envDefault:"10s"`
	Currency        string        `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	MinimumAmount   int64         `env:"PAYMENT_MINIMUM_AMOUNT" envDefault:"50"`

	// Enrollment recovery sweep
	RecoveryEnabled    bool          `env:"RECOVERY_ENABLED"     envDefault:"true"`
	RecoverySchedule   string        `env:"RECOVERY_SCHEDULE"    envDefault:"0 */5 * * * *"`
	RecoveryStaleAfter time.Duration `env:"RECOVERY_STALE_AFTER" envDefault:"2m"`
	RecoveryBatch      int           `env:"RECOVERY_BATCH"       envDefault:"50"`

	// Cross-Origin Resource Sharing and abuse protection
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envSeparator:","`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS"   envDefault:"50"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A local .env is a convenience for development only; real deployments
	// inject the environment directly.
	if goEnv := os.Getenv("ENVIRONMENT"); goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read .env: %w", err)
		}
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// ValidateServing checks the settings only the HTTP server needs. The CLI
// subcommands do not need them.
func (c *Config) ValidateServing() error {
	var missing []string
	if c.JWTPubKeyPath == "" {
		missing = append(missing, "JWT_PUBLIC_KEY_PATH")
	}
	if c.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET_NAME")
	}
	if c.CDNDomain == "" {
		missing = append(missing, "CLOUDFRONT_DOMAIN")
	}
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginAllowed reports whether origin is in the configured CORS allow-list.
func (c *Config) OriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}
