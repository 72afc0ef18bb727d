// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/pkg/slug"
)

// memoryCourseRepository is an in-memory [course.CourseRepository] that hands
// out deep copies, so callers can never mutate stored state by accident.
type memoryCourseRepository struct {
	mu      sync.Mutex
	courses map[string]*course.Course
	order   []string

	updates int
	failOn  map[string]error
}

func newMemoryRepository(seed ...*course.Course) *memoryCourseRepository {
	repository := &memoryCourseRepository{courses: map[string]*course.Course{}, failOn: map[string]error{}}
	for _, c := range seed {
		repository.courses[c.ID] = clone(c)
		repository.order = append(repository.order, c.ID)
	}
	return repository
}

func clone(c *course.Course) *course.Course {
	data, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	var out course.Course
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func (repository *memoryCourseRepository) stored(id string) *course.Course {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if c, ok := repository.courses[id]; ok {
		return clone(c)
	}
	return nil
}

func (repository *memoryCourseRepository) List(_ context.Context, categoryKey string) ([]*course.Course, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	out := []*course.Course{}
	for _, id := range repository.order {
		c, ok := repository.courses[id]
		if !ok {
			continue
		}
		if categoryKey == "" || slug.From(c.Category) == categoryKey {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (repository *memoryCourseRepository) FindByID(_ context.Context, id string) (*course.Course, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if err := repository.failOn["FindByID"]; err != nil {
		return nil, err
	}
	c, ok := repository.courses[id]
	if !ok {
		return nil, apperr.NotFound("Course")
	}
	return clone(c), nil
}

func (repository *memoryCourseRepository) FindForUpdate(ctx context.Context, id string) (*course.Course, error) {
	return repository.FindByID(ctx, id)
}

func (repository *memoryCourseRepository) Create(_ context.Context, c *course.Course) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.courses[c.ID]; exists {
		return apperr.Conflict("Course already exists")
	}
	repository.courses[c.ID] = clone(c)
	repository.order = append(repository.order, c.ID)
	return nil
}

func (repository *memoryCourseRepository) Update(_ context.Context, c *course.Course) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, ok := repository.courses[c.ID]
	if !ok {
		return apperr.NotFound("Course")
	}
	next := clone(c)
	next.Enrollments = current.Enrollments
	repository.courses[c.ID] = next
	repository.updates++
	return nil
}

func (repository *memoryCourseRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.courses[id]; !ok {
		return apperr.NotFound("Course")
	}
	delete(repository.courses, id)
	return nil
}

func (repository *memoryCourseRepository) AddEnrollment(_ context.Context, courseID, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	c, ok := repository.courses[courseID]
	if !ok {
		return apperr.NotFound("Course")
	}
	if !c.IsEnrolled(userID) {
		c.Enrollments = append(c.Enrollments, course.Enrollment{UserID: userID})
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
