// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/academia/internal/platform/authz"
	"github.com/taibuivan/academia/internal/platform/sec"
	"github.com/taibuivan/academia/internal/platform/validate"
	"github.com/taibuivan/academia/pkg/slug"
	"github.com/taibuivan/academia/pkg/uuid"
)

const (
	FieldTeacherID   = "teacherId"
	FieldTeacherName = "teacherName"
	FieldTitle       = "title"
	FieldCategory    = "category"
	FieldLevel       = "level"
	FieldStatus      = "status"

	maxTitleLength       = 200
	maxDescriptionLength = 10000
)

// # Service Layer

// Service orchestrates the business logic for courses.
type Service struct {
	courseRepo CourseRepository
	authorizer *authz.Authorizer
	newID      uuid.Generator
	now        func() time.Time
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(courseRepo CourseRepository, authorizer *authz.Authorizer, newID uuid.Generator, logger *slog.Logger) *Service {
	return &Service{
		courseRepo: courseRepo,
		authorizer: authorizer,
		newID:      newID,
		now:        time.Now,
		logger:     logger,
	}
}

// # Catalog Reads

/*
ListCourses returns the catalog, filtered by category unless the filter is
empty or the "all" sentinel. Categories match by slug.
*/
func (service *Service) ListCourses(context context.Context, category string) ([]*Course, error) {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return service.courseRepo.List(context, "")
	}
	return service.courseRepo.List(context, slug.From(category))
}

/*
GetCourse retrieves a single course.

Returns:
  - *Course: The aggregate with its content and enrollments
  - error: apperr.NotFound if absent
*/
func (service *Service) GetCourse(context context.Context, id string) (*Course, error) {
	return service.courseRepo.FindByID(context, id)
}

// # Authoring

/*
CreateCourse opens a new Draft course with empty content for the caller.

Parameters:
  - context: context.Context
  - caller: *sec.AuthClaims (must be the teacher named in input)
  - input: CreateInput

Returns:
  - *Course: The persisted course
  - error: ValidationError, Unauthorized, Forbidden or storage errors
*/
func (service *Service) CreateCourse(context context.Context, caller *sec.AuthClaims, input CreateInput) (*Course, error) {

	// ── 1. Input Validation ──────────────────────────────────────────────
	validator := &validate.Validator{}
	validator.Required(FieldTeacherID, input.TeacherID)
	validator.Required(FieldTeacherName, input.TeacherName).MaxLen(FieldTeacherName, input.TeacherName, maxTitleLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// ── 2. Authorization ─────────────────────────────────────────────────
	if err := service.authorizer.CanCreateCourse(caller, input.TeacherID); err != nil {
		return nil, err
	}

	// ── 3. Defaults ──────────────────────────────────────────────────────
	timestamp := service.now().UTC()
	course := &Course{
		ID:          service.newID(),
		TeacherID:   input.TeacherID,
		TeacherName: strings.TrimSpace(input.TeacherName),
		Title:       DefaultTitle,
		Category:    DefaultCategory,
		Price:       0,
		Level:       LevelBeginner,
		Status:      StatusDraft,
		Sections:    []Section{},
		Enrollments: []Enrollment{},
		CreatedAt:   timestamp,
		UpdatedAt:   timestamp,
	}

	// ── 4. Persistence ───────────────────────────────────────────────────
	if err := service.courseRepo.Create(context, course); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "course_created",
		slog.String("course_id", course.ID),
		slog.String("teacher_id", course.TeacherID),
	)

	return course, nil
}

/*
UpdateCourse applies a partial edit on behalf of the course owner.

The price is routed through [ToMinorUnits] and the content tree through
[Reconcile]. A rejected edit never touches the stored course.

Returns:
  - *Course: The updated course
  - error: NotFound, Unauthorized, Forbidden, InvalidPrice, ValidationError or storage errors
*/
func (service *Service) UpdateCourse(context context.Context, caller *sec.AuthClaims, id string, input UpdateInput) (*Course, error) {

	// ── 1. Load & Authorize ──────────────────────────────────────────────
	course, err := service.courseRepo.FindForUpdate(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.authorizer.CanMutateCourse(caller, course.TeacherID); err != nil {
		return nil, err
	}

	// ── 2. Scalar Fields ─────────────────────────────────────────────────
	validator := &validate.Validator{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		validator.Required(FieldTitle, title).MaxLen(FieldTitle, title, maxTitleLength)
		course.Title = title
	}
	if input.Description != nil {
		validator.MaxLen("description", *input.Description, maxDescriptionLength)
		course.Description = *input.Description
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		validator.Required(FieldCategory, category)
		validator.Custom(FieldCategory, category != "" && slug.From(category) == "", "Must contain letters or digits")
		course.Category = category
	}
	if input.Image != nil {
		course.Image = strings.TrimSpace(*input.Image)
	}
	if input.Level != nil {
		validator.Custom(FieldLevel, !input.Level.IsValid(), "Must be one of: Beginner, Intermediate, Advanced")
		course.Level = *input.Level
	}
	if input.Status != nil {
		validator.Custom(FieldStatus, !input.Status.IsValid(), "Must be one of: Draft, Published")
		course.Status = *input.Status
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// ── 3. Price ─────────────────────────────────────────────────────────
	if input.Price != nil {
		price, err := ToMinorUnits(*input.Price)
		if err != nil {
			return nil, err
		}
		course.Price = price
	}

	// ── 4. Content ───────────────────────────────────────────────────────
	var summary ReconcileSummary
	if input.Sections != nil {
		merged, stats, err := Reconcile(course.Sections, *input.Sections, service.newID)
		if err != nil {
			return nil, err
		}
		course.Sections = merged
		summary = stats
	}

	// ── 5. Persistence ───────────────────────────────────────────────────
	course.UpdatedAt = service.now().UTC()
	if err := service.courseRepo.Update(context, course); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "course_updated",
		slog.String("course_id", course.ID),
		slog.String("price", FromMinorUnits(course.Price)),
		slog.Int("sections", len(course.Sections)),
		slog.Int("nodes_carried", summary.Carried),
		slog.Int("nodes_minted", summary.Minted),
		slog.Int("nodes_dropped", summary.Dropped),
	)

	return course, nil
}

/*
DeleteCourse removes a course on behalf of its owner.

Returns:
  - *Course: The course as it was before deletion
  - error: NotFound, Unauthorized, Forbidden or storage errors
*/
func (service *Service) DeleteCourse(context context.Context, caller *sec.AuthClaims, id string) (*Course, error) {
	course, err := service.courseRepo.FindForUpdate(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.authorizer.CanMutateCourse(caller, course.TeacherID); err != nil {
		return nil, err
	}

	if err := service.courseRepo.Delete(context, id); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "course_deleted",
		slog.String("course_id", course.ID),
		slog.Int("enrollments", len(course.Enrollments)),
	)

	return course, nil
}

// # Membership

/*
AddEnrollment grants userID membership of the course. It is an atomic set-add
and safe to repeat.
*/
func (service *Service) AddEnrollment(context context.Context, courseID, userID string) error {
	return service.courseRepo.AddEnrollment(context, courseID, userID)
}
