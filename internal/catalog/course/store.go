// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course

import "context"

// # Course Data Access

// CourseRepository defines the data access contract for courses.
type CourseRepository interface {

	/*
		List returns all courses, or only those whose category slug equals
		categoryKey when it is non-empty.

		Returns:
		  - []*Course: Courses ordered by creation time (newest first)
		  - error: Storage failures
	*/
	List(context context.Context, categoryKey string) ([]*Course, error)

	/*
		FindByID returns the course with the given ID, enrollments included.

		Returns:
		  - *Course: Hydrated aggregate
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Course, error)

	// FindForUpdate reads the course from the source of truth, bypassing any
	// cache. Writes that rewrite the whole row must start from it.
	FindForUpdate(context context.Context, id string) (*Course, error)

	// Create persists a new course.
	Create(context context.Context, course *Course) error

	/*
		Update overwrites the mutable fields and the whole content tree of an
		existing course (last writer wins). Enrollments are never touched.

		Returns:
		  - error: apperr.NotFound if the course disappeared
	*/
	Update(context context.Context, course *Course) error

	// Delete removes the course and its enrollment set.
	Delete(context context.Context, id string) error

	/*
		AddEnrollment adds userID to the enrollment set of the course.

		The write is an atomic set-add: adding an existing member is a no-op and
		concurrent purchasers never overwrite each other.

		Returns:
		  - error: apperr.NotFound if the course does not exist
	*/
	AddEnrollment(context context.Context, courseID, userID string) error
}
