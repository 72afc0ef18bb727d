// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrollment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/platform/apperr"
)

/*
TestEnroll_SeedsProgressAndEnrolls is the end-to-end purchase of course X.
*/
func TestEnroll_SeedsProgressAndEnrolls(t *testing.T) {
	f := newFixture(true)

	result, err := f.pipeline.Enroll(context.Background(), purchase("T1"))
	require.NoError(t, err)

	require.NotNil(t, result.Transaction)
	assert.Equal(t, "T1", result.Transaction.TransactionID)
	assert.Equal(t, int64(4900), result.Transaction.Amount)
	assert.Equal(t, f.clock, result.Transaction.DateTime)

	require.NotNil(t, result.Progress)
	assert.Equal(t, "U", result.Progress.UserID)
	assert.Equal(t, "X", result.Progress.CourseID)
	assert.Zero(t, result.Progress.OverallProgress)
	assert.Equal(t, []SectionProgress{{
		SectionID: "S1",
		Chapters:  []ChapterProgress{{ChapterID: "C1", Completed: false}, {ChapterID: "C2", Completed: false}},
	}}, result.Progress.Sections)

	assert.Equal(t, []course.Enrollment{{UserID: "U"}}, f.catalog.enrollments("X"))
	assert.Equal(t, StateEnrolled, f.runs.get("T1").State)
	assert.Equal(t, []string{"T1"}, f.verifier.calls)
}

/*
TestEnroll_ReplayIsIdempotent verifies a repeated confirmation changes nothing.
*/
func TestEnroll_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	first, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Hour)
	second, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.NoError(t, err)

	assert.Equal(t, first.Transaction, second.Transaction)
	assert.Equal(t, first.Progress, second.Progress)
	assert.Equal(t, 1, f.transactions.inserts)
	assert.Len(t, f.transactions.rows, 1)
	assert.Len(t, f.progress.rows, 1)
	assert.Len(t, f.catalog.enrollments("X"), 1)
	assert.Equal(t, 1, f.runs.get("T1").Attempts)
}

/*
TestEnroll_ConcurrentConfirmations races identical confirmations.
*/
func TestEnroll_ConcurrentConfirmations(t *testing.T) {
	f := newFixture(false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.pipeline.Enroll(context.Background(), purchase("T1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.transactions.rows, 1)
	assert.Len(t, f.progress.rows, 1)
	assert.Len(t, f.catalog.enrollments("X"), 1)
	assert.Equal(t, StateEnrolled, f.runs.get("T1").State)
}

/*
TestEnroll_ResumesAfterFailedStep fails the final step once and retries.
*/
func TestEnroll_ResumesAfterFailedStep(t *testing.T) {
	f := newFixture(false)
	f.catalog.failures = 1
	ctx := context.Background()

	_, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.True(t, apperr.HasCode(err, apperr.CodeStorageUnavailable))

	stalled := f.runs.get("T1")
	assert.Equal(t, StateProgressSeeded, stalled.State)
	assert.Contains(t, stalled.LastError, "connection reset")
	assert.Equal(t, 1, stalled.Attempts)
	assert.Len(t, f.transactions.rows, 1)
	assert.Len(t, f.progress.rows, 1)
	assert.Empty(t, f.catalog.enrollments("X"))

	result, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.NoError(t, err)
	assert.Equal(t, "T1", result.Transaction.TransactionID)
	assert.NotNil(t, result.Progress)

	done := f.runs.get("T1")
	assert.Equal(t, StateEnrolled, done.State)
	assert.Empty(t, done.LastError)
	assert.Equal(t, 2, done.Attempts)
	assert.Equal(t, 1, f.transactions.inserts)
	assert.Len(t, f.catalog.enrollments("X"), 1)
}

/*
TestEnroll_FailureAtEachStep checks the run stops exactly where the failure happened.
*/
func TestEnroll_FailureAtEachStep(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		state State
	}{
		{"transaction", func(f *fixture) { f.transactions.failures = 1 }, StatePending},
		{"progress", func(f *fixture) { f.progress.failures = 1 }, StateTransactionRecorded},
		{"enrollment", func(f *fixture) { f.catalog.failures = 1 }, StateProgressSeeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			tt.setup(f)

			_, err := f.pipeline.Enroll(context.Background(), purchase("T1"))
			require.Error(t, err)
			assert.Equal(t, tt.state, f.runs.get("T1").State)

			_, err = f.pipeline.Resume(context.Background(), "T1")
			require.NoError(t, err)
			assert.Equal(t, StateEnrolled, f.runs.get("T1").State)
			assert.Len(t, f.transactions.rows, 1)
			assert.Len(t, f.progress.rows, 1)
			assert.Len(t, f.catalog.enrollments("X"), 1)
		})
	}
}

/*
TestEnroll_DetachesFromCancellation cancels the request once the writes begin.
*/
func TestEnroll_DetachesFromCancellation(t *testing.T) {
	f := newFixture(false)
	ctx, cancel := context.WithCancel(context.Background())

	// The first read prices the purchase; the second loads the seeding snapshot.
	reads := 0
	f.catalog.onGet = func() {
		reads++
		if reads == 2 {
			cancel()
		}
	}

	_, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.NoError(t, err)
	assert.Equal(t, StateEnrolled, f.runs.get("T1").State)
	assert.Len(t, f.catalog.enrollments("X"), 1)
}

/*
TestEnroll_Rejections covers validation, ownership of the transaction id and verification.
*/
func TestEnroll_Rejections(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		f := newFixture(false)
		_, err := f.pipeline.Enroll(context.Background(), EnrollRequest{Amount: -1, PaymentProvider: "paypal"})
		require.True(t, apperr.HasCode(err, apperr.CodeValidation))

		fields := map[string]bool{}
		for _, detail := range apperr.As(err).Details {
			fields[detail.Field] = true
		}
		assert.True(t, fields[FieldUserID])
		assert.True(t, fields[FieldCourseID])
		assert.True(t, fields[FieldAmount])
		assert.True(t, fields[FieldPaymentProvider])
		assert.Empty(t, f.runs.runs)
	})

	t.Run("unknown_course", func(t *testing.T) {
		f := newFixture(false)
		request := purchase("T1")
		request.CourseID = "missing"

		_, err := f.pipeline.Enroll(context.Background(), request)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
		assert.Empty(t, f.runs.runs)
		assert.Empty(t, f.transactions.rows)
	})

	t.Run("reused_transaction", func(t *testing.T) {
		f := newFixture(false)
		_, err := f.pipeline.Enroll(context.Background(), purchase("T1"))
		require.NoError(t, err)

		other := purchase("T1")
		other.UserID = "V"
		_, err = f.pipeline.Enroll(context.Background(), other)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
		assert.Len(t, f.catalog.enrollments("X"), 1)
	})

	t.Run("unverified_payment", func(t *testing.T) {
		f := newFixture(true)
		f.verifier.err = apperr.PaymentProvider("Payment has not succeeded", nil)

		_, err := f.pipeline.Enroll(context.Background(), purchase("T1"))
		assert.True(t, apperr.HasCode(err, apperr.CodePaymentProvider))
		assert.Empty(t, f.runs.runs)
		assert.Empty(t, f.catalog.enrollments("X"))
	})

	t.Run("paid_without_transaction", func(t *testing.T) {
		f := newFixture(true)
		_, err := f.pipeline.Enroll(context.Background(), purchase(""))
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})
}

/*
TestEnroll_FreeCourseGeneratesTransactionID enrolls without a processor round-trip.
*/
func TestEnroll_FreeCourseGeneratesTransactionID(t *testing.T) {
	f := newFixture(true)
	f.catalog.courses["X"].Price = 0
	request := purchase("")
	request.Amount = 0

	result, err := f.pipeline.Enroll(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "generated-1", result.Transaction.TransactionID)
	assert.Empty(t, f.verifier.calls)
	assert.Len(t, f.catalog.enrollments("X"), 1)
}

/*
TestEnroll_AmountMustMatchPrice rejects a paid course reported as cheaper
than its price, with or without processor verification.
*/
func TestEnroll_AmountMustMatchPrice(t *testing.T) {
	tests := []struct {
		name          string
		verify        bool
		transactionID string
		amount        int64
		field         string
	}{
		{"free_claim_verified", true, "", 0, FieldAmount},
		{"free_claim_unverified", false, "", 0, FieldAmount},
		{"minimum_intent", true, "pi_50c", 50, FieldAmount},
		{"overpaid", false, "pi_big", 9900, FieldAmount},
		{"no_transaction_unverified", false, "", 4900, FieldTransactionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.verify)
			request := purchase(tt.transactionID)
			request.Amount = tt.amount

			_, err := f.pipeline.Enroll(context.Background(), request)
			require.True(t, apperr.HasCode(err, apperr.CodeValidation), "got %v", err)

			fields := map[string]bool{}
			for _, detail := range apperr.As(err).Details {
				fields[detail.Field] = true
			}
			assert.True(t, fields[tt.field])

			assert.Empty(t, f.verifier.calls)
			assert.Empty(t, f.runs.runs)
			assert.Empty(t, f.transactions.rows)
			assert.Empty(t, f.catalog.enrollments("X"))
		})
	}
}

/*
TestEnroll_ReplaySurvivesPriceChange keeps an accepted purchase valid after
the teacher reprices the course.
*/
func TestEnroll_ReplaySurvivesPriceChange(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	first, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.NoError(t, err)

	f.catalog.courses["X"].Price = 5900
	second, err := f.pipeline.Enroll(ctx, purchase("T1"))
	require.NoError(t, err)

	assert.Equal(t, first.Transaction, second.Transaction)
	assert.Equal(t, []string{"T1"}, f.verifier.calls)
	assert.Len(t, f.catalog.enrollments("X"), 1)
}

func TestResume_UnknownRun(t *testing.T) {
	_, err := newFixture(false).pipeline.Resume(context.Background(), "nope")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestSeedProgress_EmptyCourse(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	progress := SeedProgress("U", &course.Course{ID: "Y"}, at)

	assert.NotNil(t, progress.Sections)
	assert.Empty(t, progress.Sections)
	assert.Equal(t, at, progress.EnrollmentDate)
	assert.Equal(t, at, progress.LastAccessedTimestamp)
}
