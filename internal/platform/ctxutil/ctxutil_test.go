// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/academia/internal/platform/ctxutil"
	"github.com/taibuivan/academia/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "req-checkout-42"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that AuthClaims can be stored in context.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	claims := &sec.AuthClaims{
		UserID: "teacher-7",
		Role:   sec.RoleTeacher,
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthUser(ctx, claims)
	retrieved := ctxutil.GetAuthUser(ctx)

	require.NotNil(t, retrieved)
	assert.Equal(t, "teacher-7", retrieved.UserID)
	assert.Equal(t, sec.RoleTeacher, retrieved.Role)
}

/*
TestContext_Detach verifies that a detached context survives cancellation of
its parent while keeping the parent's values.
*/
func TestContext_Detach(t *testing.T) {
	parent, cancel := context.WithCancel(ctxutil.WithRequestID(context.Background(), "req-1"))
	detached := ctxutil.Detach(parent)

	cancel()

	assert.Error(t, parent.Err())
	assert.NoError(t, detached.Err())
	assert.Equal(t, "req-1", ctxutil.GetRequestID(detached))
}
