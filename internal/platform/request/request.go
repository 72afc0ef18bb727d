// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/ctxutil"
	"github.com/taibuivan/academia/internal/platform/sec"
	"github.com/taibuivan/academia/internal/platform/validate"
)

// maxBodyBytes bounds inbound JSON payloads (course content can be large).
const maxBodyBytes = 4 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails (or the AppError raised by a field decoder), otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	body := http.MaxBytesReader(nil, request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		// Custom field decoders may already report a precise client error.
		if appErr := apperr.As(err); appErr != nil {
			return appErr
		}
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
DecodeAndValidate decodes the JSON body and then checks the struct tags of
the target with [validate.Struct].

Returns:
  - error: validate.ErrInvalidJSON or a VALIDATION_ERROR with field details
*/
func DecodeAndValidate(request *http.Request, target interface{}) error {
	if err := DecodeJSON(request, target); err != nil {
		return err
	}
	return validate.Struct(target)
}

/*
ID retrieves a named URL parameter (UUID) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Claims extracts the authenticated user claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the user claims.

Returns:
  - *sec.AuthClaims: The authenticated user claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {

	// Get user claims
	claims := ctxutil.GetAuthUser(request.Context())

	// If the user is not authenticated, return an error
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return claims, nil
}

/*
RequiredUserID returns the User ID of the currently logged-in user.

Returns:
  - string: User ID issued by the identity provider
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}

	return claims.UserID, nil
}
