// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
PostgreSQL implementation of the catalog data access.

  - JSONB Content: The Section/Chapter tree is stored as one JSONB document
    and replaced wholesale on update.
  - Enrollment Set: Membership lives in its own table keyed by (course, user)
    so a purchase is a single idempotent INSERT rather than a document rewrite.
  - Array Aggregation: Enrollments are folded back into the aggregate in the
    same round-trip.
*/
package course

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/database/schema"
	"github.com/taibuivan/academia/internal/platform/dberr"
	"github.com/taibuivan/academia/internal/platform/postgres"
	"github.com/taibuivan/academia/pkg/slug"
)

const resourceCourse = "Course"

// # PostgreSQL Repositories

// courseRepository implements the [CourseRepository] interface using pgx.
type courseRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewCourseRepository constructs a PostgreSQL backed course store. Every call
// is bounded by timeout.
func NewCourseRepository(pool *pgxpool.Pool, timeout time.Duration) CourseRepository {
	return &courseRepository{pool: pool, timeout: timeout}
}

// selectColumns lists the course columns in scan order, followed by the
// aggregated enrollment set.
func selectColumns() string {
	c := schema.CatalogCourse
	e := schema.CatalogCourseEnrollment
	return fmt.Sprintf(`
		c.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s,
		c.%s, c.%s, c.%s, c.%s, c.%s, c.%s,
		COALESCE((
			SELECT array_agg(e.%s ORDER BY e.%s)
			FROM %s e
			WHERE e.%s = c.%s
		), '{}') AS enrollments`,
		c.ID, c.TeacherID, c.TeacherName, c.Title, c.Description, c.Category, c.Image,
		c.Price, c.Level, c.Status, c.Sections, c.CreatedAt, c.UpdatedAt,
		e.UserID, e.EnrolledAt,
		e.Table,
		e.CourseID, c.ID,
	)
}

// scanCourse hydrates a course from a row produced by [selectColumns].
func scanCourse(row pgx.Row) (*Course, error) {
	var course Course
	var sections []byte
	var members []string

	err := row.Scan(
		&course.ID,
		&course.TeacherID,
		&course.TeacherName,
		&course.Title,
		&course.Description,
		&course.Category,
		&course.Image,
		&course.Price,
		&course.Level,
		&course.Status,
		&sections,
		&course.CreatedAt,
		&course.UpdatedAt,
		&members,
	)
	if err != nil {
		return nil, err
	}

	course.Sections = []Section{}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &course.Sections); err != nil {
			return nil, fmt.Errorf("decode sections of course %s: %w", course.ID, err)
		}
	}

	course.Enrollments = make([]Enrollment, 0, len(members))
	for _, userID := range members {
		course.Enrollments = append(course.Enrollments, Enrollment{UserID: userID})
	}

	return &course, nil
}

// # Course Repository Implementation

/*
List retrieves courses, optionally narrowed to one category slug.

Parameters:
  - context: context.Context
  - categoryKey: string (slug; empty means every category)

Returns:
  - []*Course: Matching courses
  - error: Storage failures
*/
func (repository *courseRepository) List(context context.Context, categoryKey string) ([]*Course, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString(fmt.Sprintf("SELECT %s FROM %s c", selectColumns(), schema.CatalogCourse.Table))

	if categoryKey != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE c.%s = $1", schema.CatalogCourse.CategoryKey))
		args = append(args, categoryKey)
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY c.%s DESC", schema.CatalogCourse.CreatedAt))

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, resourceCourse, "list courses")
	}
	defer rows.Close()

	courses := []*Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceCourse, "scan course")
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceCourse, "iterate courses")
	}

	return courses, nil
}

/*
FindByID returns a single course with its enrollment set.

Returns:
  - *Course: The aggregate
  - error: apperr.NotFound on absent rows
*/
func (repository *courseRepository) FindByID(context context.Context, id string) (*Course, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s c WHERE c.%s = $1",
		selectColumns(), schema.CatalogCourse.Table, schema.CatalogCourse.ID)

	course, err := scanCourse(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceCourse, "find course")
	}

	return course, nil
}

// FindForUpdate is FindByID; the table is the source of truth.
func (repository *courseRepository) FindForUpdate(context context.Context, id string) (*Course, error) {
	return repository.FindByID(context, id)
}

/*
Create inserts a new course row. The enrollment set starts empty.

Returns:
  - error: apperr.Conflict if the id is already taken
*/
func (repository *courseRepository) Create(context context.Context, course *Course) error {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	sections, err := json.Marshal(course.Sections)
	if err != nil {
		return apperr.Internal(fmt.Errorf("encode sections: %w", err))
	}

	c := schema.CatalogCourse
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		c.Table,
		c.ID, c.TeacherID, c.TeacherName, c.Title, c.Description, c.Category, c.CategoryKey,
		c.Image, c.Price, c.Level, c.Status, c.Sections, c.CreatedAt, c.UpdatedAt,
	)

	_, err = repository.pool.Exec(ctx, query,
		course.ID, course.TeacherID, course.TeacherName, course.Title, course.Description,
		course.Category, slug.From(course.Category), course.Image, course.Price,
		course.Level, course.Status, sections, course.CreatedAt, course.UpdatedAt,
	)
	return dberr.Wrap(err, resourceCourse, "create course")
}

/*
Update overwrites the mutable columns and the content document.

Returns:
  - error: apperr.NotFound if no row matched
*/
func (repository *courseRepository) Update(context context.Context, course *Course) error {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	sections, err := json.Marshal(course.Sections)
	if err != nil {
		return apperr.Internal(fmt.Errorf("encode sections: %w", err))
	}

	c := schema.CatalogCourse
	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
			%s = $7, %s = $8, %s = $9, %s = $10, %s = $11
		WHERE %s = $1
	`,
		c.Table,
		c.Title, c.Description, c.Category, c.CategoryKey, c.Image,
		c.Price, c.Level, c.Status, c.Sections, c.UpdatedAt,
		c.ID,
	)

	tag, err := repository.pool.Exec(ctx, query,
		course.ID, course.Title, course.Description, course.Category, slug.From(course.Category),
		course.Image, course.Price, course.Level, course.Status, sections, course.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceCourse, "update course")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceCourse)
	}

	return nil
}

/*
Delete removes a course. Its enrollment rows are removed by ON DELETE CASCADE.

Returns:
  - error: apperr.NotFound if no row matched
*/
func (repository *courseRepository) Delete(context context.Context, id string) error {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.CatalogCourse.Table, schema.CatalogCourse.ID)

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, resourceCourse, "delete course")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceCourse)
	}

	return nil
}

/*
AddEnrollment inserts the (course, user) membership row if it is absent.

Returns:
  - error: apperr.NotFound if the course does not exist (foreign key)
*/
func (repository *courseRepository) AddEnrollment(context context.Context, courseID, userID string) error {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	e := schema.CatalogCourseEnrollment
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		VALUES ($1, $2)
		ON CONFLICT (%s, %s) DO NOTHING
	`, e.Table, e.CourseID, e.UserID, e.CourseID, e.UserID)

	_, err := repository.pool.Exec(ctx, query, courseID, userID)
	return dberr.Wrap(err, resourceCourse, "add enrollment")
}
