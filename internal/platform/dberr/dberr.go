// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/academia/internal/platform/apperr"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Classification
//
//   - pgx.ErrNoRows           -> NOT_FOUND (named after resource)
//   - SQLSTATE 23505          -> CONFLICT
//   - SQLSTATE 23503          -> NOT_FOUND (the referenced parent is gone)
//   - deadline / cancellation -> STORAGE_UNAVAILABLE
//   - connection failures     -> STORAGE_UNAVAILABLE
//   - anything else           -> INTERNAL_ERROR
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack
	if apperr.IsAppError(err) {
		return err
	}

	cause := fmt.Errorf("postgres: %s: %w", action, err)

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource).WithCause(cause)
	}

	// 2. Duplicate keys
	if IsUniqueViolation(err) {
		return apperr.Conflict(resource + " already exists").WithCause(cause)
	}

	// 3. Writes against a parent that no longer exists
	if IsForeignKeyViolation(err) {
		return apperr.NotFound(resource).WithCause(cause)
	}

	// 4. Transient failures are safe for the caller to retry
	if IsTransient(err) {
		return apperr.StorageUnavailable(cause)
	}

	// 5. Unknown query errors become Internal Server Errors
	return apperr.Internal(cause)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign-key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// IsTransient reports whether err is a timeout or connectivity failure rather
// than a logical query error.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	return pgconn.Timeout(err)
}
