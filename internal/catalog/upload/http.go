// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/platform/authz"
	"github.com/taibuivan/academia/internal/platform/middleware"
	requestutil "github.com/taibuivan/academia/internal/platform/request"
	"github.com/taibuivan/academia/internal/platform/respond"
)

// CourseFinder loads the course a grant is requested for.
type CourseFinder interface {
	GetCourse(context context.Context, id string) (*course.Course, error)
}

// Handler exposes upload grants over HTTP.
type Handler struct {
	issuer     *Issuer
	courses    CourseFinder
	authorizer *authz.Authorizer
}

// NewHandler constructs a new upload [Handler].
func NewHandler(issuer *Issuer, courses CourseFinder, authorizer *authz.Authorizer) *Handler {
	return &Handler{issuer: issuer, courses: courses, authorizer: authorizer}
}

// RegisterRoutes attaches upload endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.With(middleware.RequireAuth).Post("/courses/{courseID}/upload-url", handler.RequestUploadGrant)
}

type uploadGrantRequest struct {
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType" validate:"required"`
}

// uploadGrantResponse keeps the kind-specific URL field clients already read.
type uploadGrantResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

/*
POST /api/v1/courses/{courseID}/upload-url.

Request:
  - body: {fileName, fileType}

Response:
  - 200: {uploadUrl, imageUrl | videoUrl, key, expiresAt}
  - 400: Validation
  - 403: ErrForbidden (caller does not own the course)
  - 404: ErrNotFound
  - 415: Unsupported content type
*/
func (handler *Handler) RequestUploadGrant(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	// ── 1. Ownership ─────────────────────────────────────────────────────
	target, err := handler.courses.GetCourse(ctx, requestutil.ID(request, "courseID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.authorizer.CanMutateCourse(requestutil.Claims(request), target.TeacherID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Grant ─────────────────────────────────────────────────────────
	var input uploadGrantRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.issuer.IssueUploadGrant(ctx, input.FileName, input.FileType)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	response := uploadGrantResponse{UploadURL: grant.UploadURL, Key: grant.Key, ExpiresAt: grant.ExpiresAt}
	switch grant.Kind {
	case KindImage:
		response.ImageURL = grant.PublicURL
	case KindVideo:
		response.VideoURL = grant.PublicURL
	}

	respond.OK(writer, response)
}
