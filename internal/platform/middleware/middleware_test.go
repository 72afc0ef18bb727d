// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/academia/internal/platform/ctxutil"
	"github.com/taibuivan/academia/internal/platform/middleware"
	"github.com/taibuivan/academia/internal/platform/sec"
)

type stubVerifier struct {
	claims *sec.AuthClaims
}

func (stub stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return stub.claims, nil
}

func okHandler(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
}

func serve(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		request.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestAuthenticate covers anonymous, malformed, invalid and valid credentials.
*/
func TestAuthenticate(t *testing.T) {
	verifier := stubVerifier{claims: &sec.AuthClaims{UserID: "u1", Role: sec.RoleStudent}}

	var seen *sec.AuthClaims
	capture := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.Authenticate(verifier)(capture)

	tests := []struct {
		name   string
		header string
		status int
		authed bool
	}{
		{"anonymous", "", http.StatusOK, false},
		{"malformed", "Token good", http.StatusUnauthorized, false},
		{"invalid", "Bearer bad", http.StatusUnauthorized, false},
		{"valid", "Bearer good", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			recorder := serve(handler, tt.header)
			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.authed, seen != nil)
		})
	}
}

/*
TestRequireRole verifies the role gate rejects anonymous and mismatched callers.
*/
func TestRequireRole(t *testing.T) {
	build := func(role sec.UserRole) http.Handler {
		verifier := stubVerifier{claims: &sec.AuthClaims{UserID: "u1", Role: role}}
		return middleware.Authenticate(verifier)(middleware.RequireRole(sec.RoleTeacher)(http.HandlerFunc(okHandler)))
	}

	assert.Equal(t, http.StatusUnauthorized, serve(build(sec.RoleTeacher), "").Code)
	assert.Equal(t, http.StatusForbidden, serve(build(sec.RoleStudent), "Bearer good").Code)
	assert.Equal(t, http.StatusOK, serve(build(sec.RoleTeacher), "Bearer good").Code)
	assert.Equal(t, http.StatusOK, serve(build(sec.RoleAdmin), "Bearer good").Code)
}

/*
TestRateLimiter verifies that the bucket rejects a burst overflow with 429 and Retry-After.
*/
func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 2)
	handler := limiter.Middleware(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, serve(handler, "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, "").Code)

	recorder := serve(handler, "")
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
}

/*
TestPanicRecovery verifies panics become a 500 JSON error.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := serve(handler, "")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}

/*
TestRealIP checks proxy header precedence.
*/
func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", middleware.RealIP(request))

	request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", middleware.RealIP(request))

	request.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", middleware.RealIP(request))
}
