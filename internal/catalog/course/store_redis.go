// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/academia/internal/platform/constants"
)

// cacheClient is the subset of [redis.Cmdable] the course cache needs.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cachedCourseRepository is a read-through Redis cache in front of another
// [CourseRepository]. Cache failures are logged and bypassed, never returned.
type cachedCourseRepository struct {
	next   CourseRepository
	client cacheClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedCourseRepository wraps next with a Redis read-through cache for single-course reads.
func NewCachedCourseRepository(next CourseRepository, client cacheClient, ttl time.Duration, logger *slog.Logger) CourseRepository {
	return &cachedCourseRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return constants.RedisPrefixCourse + id
}

// List is not cached: category listings change with every publish.
func (repository *cachedCourseRepository) List(context context.Context, categoryKey string) ([]*Course, error) {
	return repository.next.List(context, categoryKey)
}

/*
FindByID serves the course from Redis when present, otherwise loads it from
the underlying store and populates the cache.
*/
func (repository *cachedCourseRepository) FindByID(context context.Context, id string) (*Course, error) {
	key := cacheKey(id)

	// 1. Cache lookup
	payload, err := repository.client.Get(context, key).Bytes()
	switch {
	case err == nil:
		var course Course
		if jsonErr := json.Unmarshal(payload, &course); jsonErr == nil {
			return &course, nil
		}
		repository.logger.WarnContext(context, "course_cache_corrupt", slog.String("course_id", id))
	case !errors.Is(err, redis.Nil):
		repository.logger.WarnContext(context, "course_cache_get_failed",
			slog.String("course_id", id),
			slog.Any("error", err),
		)
	}

	// 2. Source of truth
	course, err := repository.next.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// 3. Populate
	if encoded, jsonErr := json.Marshal(course); jsonErr == nil {
		if setErr := repository.client.Set(context, key, encoded, repository.ttl).Err(); setErr != nil {
			repository.logger.WarnContext(context, "course_cache_set_failed",
				slog.String("course_id", id),
				slog.Any("error", setErr),
			)
		}
	}

	return course, nil
}

// FindForUpdate skips the cache entirely. A cached copy may predate a
// concurrent write, and saving over it would undo that write.
func (repository *cachedCourseRepository) FindForUpdate(context context.Context, id string) (*Course, error) {
	return repository.next.FindForUpdate(context, id)
}

func (repository *cachedCourseRepository) Create(context context.Context, course *Course) error {
	return repository.next.Create(context, course)
}

func (repository *cachedCourseRepository) Update(context context.Context, course *Course) error {
	if err := repository.next.Update(context, course); err != nil {
		return err
	}
	repository.invalidate(context, course.ID)
	return nil
}

func (repository *cachedCourseRepository) Delete(context context.Context, id string) error {
	if err := repository.next.Delete(context, id); err != nil {
		return err
	}
	repository.invalidate(context, id)
	return nil
}

func (repository *cachedCourseRepository) AddEnrollment(context context.Context, courseID, userID string) error {
	if err := repository.next.AddEnrollment(context, courseID, userID); err != nil {
		return err
	}
	repository.invalidate(context, courseID)
	return nil
}

// invalidate drops the cached copy after a successful write.
func (repository *cachedCourseRepository) invalidate(context context.Context, id string) {
	if err := repository.client.Del(context, cacheKey(id)).Err(); err != nil {
		repository.logger.WarnContext(context, "course_cache_invalidate_failed",
			slog.String("course_id", id),
			slog.Any("error", err),
		)
	}
}
