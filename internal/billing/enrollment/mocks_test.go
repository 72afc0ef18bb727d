// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrollment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/platform/apperr"
)

// # In-Memory Stores

type memoryRuns struct {
	mu    sync.Mutex
	runs  map[string]Run
	saves int
}

func (store *memoryRuns) Begin(_ context.Context, run *Run) (*Run, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if existing, ok := store.runs[run.TransactionID]; ok {
		return &existing, false, nil
	}
	store.runs[run.TransactionID] = *run
	copied := *run
	return &copied, true, nil
}

func (store *memoryRuns) FindByID(_ context.Context, transactionID string) (*Run, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	run, ok := store.runs[transactionID]
	if !ok {
		return nil, apperr.NotFound(resourceRun)
	}
	return &run, nil
}

func (store *memoryRuns) Save(_ context.Context, run *Run) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.runs[run.TransactionID]; !ok {
		return apperr.NotFound(resourceRun)
	}
	store.runs[run.TransactionID] = *run
	store.saves++
	return nil
}

func (store *memoryRuns) ListStale(_ context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Run, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	stale := []*Run{}
	for _, run := range store.runs {
		if !run.State.Done() && run.UpdatedAt.Before(olderThan) && run.Attempts < maxAttempts {
			copied := run
			stale = append(stale, &copied)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (store *memoryRuns) get(transactionID string) Run {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.runs[transactionID]
}

type memoryTransactions struct {
	mu       sync.Mutex
	rows     map[string]Transaction
	inserts  int
	failures int
}

func (store *memoryTransactions) Insert(_ context.Context, txn *Transaction) (*Transaction, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failures > 0 {
		store.failures--
		return nil, apperr.StorageUnavailable(fmt.Errorf("postgres: insert transaction: timeout"))
	}

	store.inserts++
	if existing, ok := store.rows[txn.TransactionID]; ok {
		return &existing, nil
	}
	store.rows[txn.TransactionID] = *txn
	copied := *txn
	return &copied, nil
}

func (store *memoryTransactions) FindByID(_ context.Context, transactionID string) (*Transaction, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	txn, ok := store.rows[transactionID]
	if !ok {
		return nil, apperr.NotFound(resourceTransaction)
	}
	return &txn, nil
}

func (store *memoryTransactions) ListByUser(_ context.Context, userID string) ([]*Transaction, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	out := []*Transaction{}
	for _, txn := range store.rows {
		if userID == "" || txn.UserID == userID {
			copied := txn
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

type memoryProgress struct {
	mu       sync.Mutex
	rows     map[string]UserCourseProgress
	failures int
}

func progressKey(userID, courseID string) string { return userID + "|" + courseID }

func (store *memoryProgress) Seed(_ context.Context, progress *UserCourseProgress) (*UserCourseProgress, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failures > 0 {
		store.failures--
		return nil, apperr.StorageUnavailable(fmt.Errorf("postgres: seed progress: timeout"))
	}

	key := progressKey(progress.UserID, progress.CourseID)
	if existing, ok := store.rows[key]; ok {
		return &existing, nil
	}
	store.rows[key] = *progress
	copied := *progress
	return &copied, nil
}

func (store *memoryProgress) Find(_ context.Context, userID, courseID string) (*UserCourseProgress, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	progress, ok := store.rows[progressKey(userID, courseID)]
	if !ok {
		return nil, apperr.NotFound(resourceProgress)
	}
	return &progress, nil
}

// # Collaborators

type fakeCatalog struct {
	mu       sync.Mutex
	courses  map[string]*course.Course
	failures int
	onGet    func()
}

func (catalog *fakeCatalog) GetCourse(_ context.Context, id string) (*course.Course, error) {
	if catalog.onGet != nil {
		catalog.onGet()
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	found, ok := catalog.courses[id]
	if !ok {
		return nil, apperr.NotFound("Course")
	}
	copied := *found
	return &copied, nil
}

func (catalog *fakeCatalog) AddEnrollment(ctx context.Context, courseID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if catalog.failures > 0 {
		catalog.failures--
		return apperr.StorageUnavailable(fmt.Errorf("postgres: add enrollment: connection reset"))
	}

	found, ok := catalog.courses[courseID]
	if !ok {
		return apperr.NotFound("Course")
	}
	if !found.IsEnrolled(userID) {
		found.Enrollments = append(found.Enrollments, course.Enrollment{UserID: userID})
	}
	return nil
}

func (catalog *fakeCatalog) enrollments(courseID string) []course.Enrollment {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	return append([]course.Enrollment(nil), catalog.courses[courseID].Enrollments...)
}

type fakeVerifier struct {
	err   error
	calls []string
}

func (verifier *fakeVerifier) Verify(_ context.Context, intentID string, _ int64) error {
	verifier.calls = append(verifier.calls, intentID)
	return verifier.err
}

// # Fixture

type fixture struct {
	runs         *memoryRuns
	transactions *memoryTransactions
	progress     *memoryProgress
	catalog      *fakeCatalog
	verifier     *fakeVerifier
	clock        time.Time
	pipeline     *Pipeline
}

func courseX() *course.Course {
	return &course.Course{
		ID:        "X",
		TeacherID: "teacher-1",
		Price:     4900,
		Sections: []course.Section{{
			SectionID: "S1",
			Chapters:  []course.Chapter{{ChapterID: "C1"}, {ChapterID: "C2"}},
		}},
		Enrollments: []course.Enrollment{},
	}
}

func newFixture(withVerifier bool) *fixture {
	f := &fixture{
		runs:         &memoryRuns{runs: map[string]Run{}},
		transactions: &memoryTransactions{rows: map[string]Transaction{}},
		progress:     &memoryProgress{rows: map[string]UserCourseProgress{}},
		catalog:      &fakeCatalog{courses: map[string]*course.Course{"X": courseX()}},
		verifier:     &fakeVerifier{},
		clock:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var verifier PaymentVerifier
	if withVerifier {
		verifier = f.verifier
	}

	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("generated-%d", n)
	}

	f.pipeline = NewPipeline(f.runs, f.transactions, f.progress, f.catalog, verifier, newID, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.pipeline.now = func() time.Time { return f.clock }
	return f
}

func purchase(transactionID string) EnrollRequest {
	return EnrollRequest{UserID: "U", CourseID: "X", TransactionID: transactionID, Amount: 4900, PaymentProvider: ProviderStripe}
}
