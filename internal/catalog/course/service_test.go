// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/authz"
	"github.com/taibuivan/academia/internal/platform/sec"
)

var (
	owner    = &sec.AuthClaims{UserID: "teacher-1", Role: sec.RoleTeacher}
	stranger = &sec.AuthClaims{UserID: "teacher-2", Role: sec.RoleTeacher}
	student  = &sec.AuthClaims{UserID: "student-1", Role: sec.RoleStudent}
)

func newService(repository course.CourseRepository) *course.Service {
	return course.NewService(repository, authz.New(), sequence(), discardLogger())
}

func seededCourse() *course.Course {
	return &course.Course{
		ID:          "X",
		TeacherID:   "teacher-1",
		TeacherName: "Ada",
		Title:       "Go in Practice",
		Category:    "Web Development",
		Price:       4900,
		Level:       course.LevelBeginner,
		Status:      course.StatusDraft,
		Sections: []course.Section{{
			SectionID: "S1",
			Chapters:  []course.Chapter{{ChapterID: "C1", Type: course.ChapterText}},
		}},
		Enrollments: []course.Enrollment{},
	}
}

func ptr[T any](v T) *T { return &v }

/*
TestCreateCourse_Defaults verifies a new course starts as an empty Draft.
*/
func TestCreateCourse_Defaults(t *testing.T) {
	repository := newMemoryRepository()
	service := newService(repository)

	created, err := service.CreateCourse(context.Background(), owner, course.CreateInput{TeacherID: "teacher-1", TeacherName: "Ada"})
	require.NoError(t, err)

	assert.Equal(t, "gen-1", created.ID)
	assert.Equal(t, course.DefaultTitle, created.Title)
	assert.Equal(t, course.DefaultCategory, created.Category)
	assert.Equal(t, course.StatusDraft, created.Status)
	assert.Equal(t, course.LevelBeginner, created.Level)
	assert.Zero(t, created.Price)
	assert.Empty(t, created.Sections)
	assert.Empty(t, created.Enrollments)
	assert.NotNil(t, repository.stored("gen-1"))
}

/*
TestCreateCourse_Rejects covers missing fields and role/identity mismatches.
*/
func TestCreateCourse_Rejects(t *testing.T) {
	service := newService(newMemoryRepository())
	ctx := context.Background()

	_, err := service.CreateCourse(ctx, owner, course.CreateInput{TeacherID: "teacher-1"})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = service.CreateCourse(ctx, student, course.CreateInput{TeacherID: "student-1", TeacherName: "S"})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = service.CreateCourse(ctx, owner, course.CreateInput{TeacherID: "teacher-2", TeacherName: "Ada"})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

/*
TestListCourses_CategoryFilter matches categories by slug and honours the "all" sentinel.
*/
func TestListCourses_CategoryFilter(t *testing.T) {
	design := seededCourse()
	design.ID, design.Category = "Y", "Design"
	service := newService(newMemoryRepository(seededCourse(), design))
	ctx := context.Background()

	all, err := service.ListCourses(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := service.ListCourses(ctx, "")
	require.NoError(t, err)
	assert.Len(t, none, 2)

	web, err := service.ListCourses(ctx, "web-development")
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "X", web[0].ID)
}

/*
TestUpdateCourse_ReconcilesContentAndPrice walks the one-chapter edit end to end.
*/
func TestUpdateCourse_ReconcilesContentAndPrice(t *testing.T) {
	repository := newMemoryRepository(seededCourse())
	service := newService(repository)

	sections := []course.SectionInput{{
		SectionID: "S1",
		Chapters:  []course.ChapterInput{{ChapterID: "C1"}, {Title: "new"}},
	}}

	updated, err := service.UpdateCourse(context.Background(), owner, "X", course.UpdateInput{
		Title:    ptr("Go in Production"),
		Price:    ptr("59"),
		Status:   ptr(course.StatusPublished),
		Sections: &sections,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5900), updated.Price)
	assert.Equal(t, course.StatusPublished, updated.Status)
	require.Len(t, updated.Sections, 1)
	require.Len(t, updated.Sections[0].Chapters, 2)
	assert.Equal(t, "C1", updated.Sections[0].Chapters[0].ChapterID)
	assert.NotContains(t, []string{"C1", "S1", ""}, updated.Sections[0].Chapters[1].ChapterID)

	persisted := repository.stored("X")
	assert.Equal(t, "Go in Production", persisted.Title)
	assert.Equal(t, updated.Sections, persisted.Sections)
}

/*
TestUpdateCourse_AbsentPriceKeepsStored verifies partial update semantics.
*/
func TestUpdateCourse_AbsentPriceKeepsStored(t *testing.T) {
	repository := newMemoryRepository(seededCourse())
	service := newService(repository)

	updated, err := service.UpdateCourse(context.Background(), owner, "X", course.UpdateInput{Description: ptr("Learn Go")})
	require.NoError(t, err)
	assert.Equal(t, int64(4900), updated.Price)
	assert.Len(t, updated.Sections, 1)
}

/*
TestUpdateCourse_RejectionsNeverMutate covers ownership, price and content failures.
*/
func TestUpdateCourse_RejectionsNeverMutate(t *testing.T) {
	duplicate := []course.SectionInput{{SectionID: "S1"}, {SectionID: "S1"}}

	tests := []struct {
		name   string
		caller *sec.AuthClaims
		input  course.UpdateInput
		code   string
	}{
		{"non_owner", stranger, course.UpdateInput{Title: ptr("Hijacked")}, apperr.CodeForbidden},
		{"admin_not_owner", &sec.AuthClaims{UserID: "root", Role: sec.RoleAdmin}, course.UpdateInput{Title: ptr("Hijacked")}, apperr.CodeForbidden},
		{"anonymous", nil, course.UpdateInput{Title: ptr("Hijacked")}, apperr.CodeUnauthorized},
		{"bad_price", owner, course.UpdateInput{Title: ptr("Hijacked"), Price: ptr("abc")}, apperr.CodeInvalidPrice},
		{"bad_level", owner, course.UpdateInput{Level: ptr(course.Level("Expert"))}, apperr.CodeValidation},
		{"duplicate_sections", owner, course.UpdateInput{Title: ptr("Hijacked"), Sections: &duplicate}, apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := newMemoryRepository(seededCourse())
			service := newService(repository)

			_, err := service.UpdateCourse(context.Background(), tt.caller, "X", tt.input)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)

			assert.Zero(t, repository.updates)
			assert.Equal(t, "Go in Practice", repository.stored("X").Title)
			assert.Equal(t, int64(4900), repository.stored("X").Price)
		})
	}
}

/*
TestDeleteCourse verifies ownership and the returned snapshot.
*/
func TestDeleteCourse(t *testing.T) {
	repository := newMemoryRepository(seededCourse())
	service := newService(repository)
	ctx := context.Background()

	_, err := service.DeleteCourse(ctx, stranger, "X")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.NotNil(t, repository.stored("X"))

	deleted, err := service.DeleteCourse(ctx, owner, "X")
	require.NoError(t, err)
	assert.Equal(t, "X", deleted.ID)
	assert.Nil(t, repository.stored("X"))

	_, err = service.DeleteCourse(ctx, owner, "X")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestAddEnrollment_ConcurrentSetAdd ensures concurrent purchasers all end up enrolled once.
*/
func TestAddEnrollment_ConcurrentSetAdd(t *testing.T) {
	repository := newMemoryRepository(seededCourse())
	service := newService(repository)

	users := []string{"u1", "u2", "u3", "u1", "u2", "u3"}
	var wg sync.WaitGroup
	for _, userID := range users {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, service.AddEnrollment(context.Background(), "X", id))
		}(userID)
	}
	wg.Wait()

	enrollments := repository.stored("X").Enrollments
	assert.Len(t, enrollments, 3)
	assert.ElementsMatch(t, []course.Enrollment{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}}, enrollments)
}
