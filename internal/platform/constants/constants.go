// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Commerce: Currency and processor floor amounts.
  - Storage Layout: Object key prefixes for uploaded media.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "academia-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "academia.app"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderRetryAfter    = "Retry-After"
)

// # Commerce

const (
	// DefaultCurrency is the only currency the marketplace charges in.
	DefaultCurrency = "usd"

	// MinimumChargeAmount is the smallest amount (in cents) the processor accepts.
	// Missing or non-positive requested amounts are raised to this floor.
	MinimumChargeAmount int64 = 50

	// MinorUnitsPerMajor converts whole dollars into cents.
	MinorUnitsPerMajor int64 = 100
)

// # Storage Layout

const (
	// UploadPrefixImage holds course thumbnails and other images.
	UploadPrefixImage = "course-images"

	// UploadPrefixVideo holds chapter videos.
	UploadPrefixVideo = "videos"

	// DefaultUploadURLTTL is how long a presigned upload URL stays valid.
	DefaultUploadURLTTL = 60 * time.Second
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaCatalog = "catalog"
	SchemaBilling = "billing"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixCourse = "catalog:course:"
)
