// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
HTTP interface for browsing and authoring courses.

# Routing Strategy

  - Public (v1): Catalog browsing (GET /courses, GET /courses/{courseID}).
  - Teachers (v1): Course creation.
  - Owners (v1): Update and delete, checked by the service through authz.

The handler translates between the web/JSON layer and the internal domain [Service].
*/
package course

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/middleware"
	requestutil "github.com/taibuivan/academia/internal/platform/request"
	"github.com/taibuivan/academia/internal/platform/respond"
	"github.com/taibuivan/academia/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for course management.
type Handler struct {
	service *Service
}

// NewHandler constructs a new course [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches course endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/courses", handler.ListCourses)
	api.Get("/courses/{courseID}", handler.GetCourse)

	api.Group(func(teacher chi.Router) {
		teacher.Use(middleware.RequireRole(sec.RoleTeacher))
		teacher.Post("/courses", handler.CreateCourse)
	})

	// Ownership is enforced by the service so admins get the same answer as everyone else.
	api.Group(func(owner chi.Router) {
		owner.Use(middleware.RequireAuth)
		owner.Put("/courses/{courseID}", handler.UpdateCourse)
		owner.Delete("/courses/{courseID}", handler.DeleteCourse)
	})
}

// # Catalog Retrieval

/*
GET /api/v1/courses.

Request:
  - category: string (optional; "all" disables the filter)

Response:
  - 200: []Course
*/
func (handler *Handler) ListCourses(writer http.ResponseWriter, request *http.Request) {
	courses, err := handler.service.ListCourses(request.Context(), request.URL.Query().Get("category"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, courses)
}

/*
GET /api/v1/courses/{courseID}.

Response:
  - 200: Course
  - 404: ErrNotFound
*/
func (handler *Handler) GetCourse(writer http.ResponseWriter, request *http.Request) {
	course, err := handler.service.GetCourse(request.Context(), requestutil.ID(request, "courseID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, course)
}

// # Course Authoring

// createCourseRequest defines the inbound JSON schema for new courses.
type createCourseRequest struct {
	TeacherID   string `json:"teacherId"   validate:"required"`
	TeacherName string `json:"teacherName" validate:"required"`
}

/*
POST /api/v1/courses.

Request:
  - body: createCourseRequest

Response:
  - 201: Course (Draft, empty)
  - 400: Validation
  - 401: ErrUnauthorized
  - 403: ErrForbidden (not a teacher, or teacherId is not the caller)
*/
func (handler *Handler) CreateCourse(writer http.ResponseWriter, request *http.Request) {
	var input createCourseRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	course, err := handler.service.CreateCourse(request.Context(), requestutil.Claims(request), CreateInput{
		TeacherID:   input.TeacherID,
		TeacherName: input.TeacherName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, course)
}

// updateCourseRequest defines the inbound JSON schema for partial edits.
type updateCourseRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Category    *string        `json:"category"`
	Image       *string        `json:"image"`
	Level       *Level         `json:"level"`
	Status      *Status        `json:"status"`
	Price       *priceField    `json:"price"`
	Sections    *sectionsField `json:"sections"`
}

func (input updateCourseRequest) toDomain() UpdateInput {
	update := UpdateInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Image:       input.Image,
		Level:       input.Level,
		Status:      input.Status,
	}
	if input.Price != nil {
		raw := string(*input.Price)
		update.Price = &raw
	}
	if input.Sections != nil {
		sections := []SectionInput(*input.Sections)
		update.Sections = &sections
	}
	return update
}

/*
PUT /api/v1/courses/{courseID}.

Request:
  - body: updateCourseRequest (every field optional)

Response:
  - 200: Course
  - 400: Validation / INVALID_PRICE
  - 403: ErrForbidden (caller is not the owner)
  - 404: ErrNotFound
*/
func (handler *Handler) UpdateCourse(writer http.ResponseWriter, request *http.Request) {
	var input updateCourseRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	course, err := handler.service.UpdateCourse(request.Context(), requestutil.Claims(request), requestutil.ID(request, "courseID"), input.toDomain())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, course)
}

/*
DELETE /api/v1/courses/{courseID}.

Response:
  - 200: Course (the deleted course)
  - 403: ErrForbidden
  - 404: ErrNotFound
*/
func (handler *Handler) DeleteCourse(writer http.ResponseWriter, request *http.Request) {
	course, err := handler.service.DeleteCourse(request.Context(), requestutil.Claims(request), requestutil.ID(request, "courseID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, course)
}

// # Lenient Payload Fields

// priceField accepts the price as a JSON string ("49") or number (49).
// The raw text is handed to [ToMinorUnits], which rejects anything that is
// not a whole number.
type priceField string

func (field *priceField) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*field = priceField(text)
		return nil
	}

	var number json.Number
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&number); err != nil {
		return apperr.InvalidPrice(string(data))
	}
	*field = priceField(number.String())
	return nil
}

// sectionsField accepts the content tree as a JSON array or as a string that
// contains one (multipart form submissions send it that way).
type sectionsField []SectionInput

func (field *sectionsField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = []byte(encoded)
	}

	var sections []SectionInput
	if err := json.Unmarshal(data, &sections); err != nil {
		return err
	}
	*field = sections
	return nil
}
