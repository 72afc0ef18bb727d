// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrollment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/ctxutil"
	"github.com/taibuivan/academia/internal/platform/validate"
	"github.com/taibuivan/academia/pkg/uuid"
)

const (
	FieldUserID          = "userId"
	FieldCourseID        = "courseId"
	FieldTransactionID   = "transactionId"
	FieldAmount          = "amount"
	FieldPaymentProvider = "paymentProvider"
)

// CourseCatalog is what the pipeline needs from the course side.
type CourseCatalog interface {
	GetCourse(ctx context.Context, id string) (*course.Course, error)
	AddEnrollment(ctx context.Context, courseID, userID string) error
}

// PaymentVerifier confirms a reported payment with the processor.
type PaymentVerifier interface {
	Verify(ctx context.Context, intentID string, amount int64) error
}

// Pipeline drives purchases from payment confirmation to enrollment.
type Pipeline struct {
	runs         RunRepository
	transactions TransactionRepository
	progress     ProgressRepository
	catalog      CourseCatalog
	verifier     PaymentVerifier // nil disables verification
	newID        uuid.Generator
	now          func() time.Time
	logger       *slog.Logger
}

// NewPipeline constructs the enrollment [Pipeline]. Pass a nil verifier to
// accept reported payments without asking the processor.
func NewPipeline(
	runs RunRepository,
	transactions TransactionRepository,
	progress ProgressRepository,
	catalog CourseCatalog,
	verifier PaymentVerifier,
	newID uuid.Generator,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		runs:         runs,
		transactions: transactions,
		progress:     progress,
		catalog:      catalog,
		verifier:     verifier,
		newID:        newID,
		now:          time.Now,
		logger:       logger,
	}
}

/*
Enroll records a purchase and grants membership.

The reported amount must equal the course price, and only free courses may
omit the transaction id. Repeating the call with the same transaction id
never duplicates anything: an Enrolled run returns its stored result, an
unfinished one resumes.

Parameters:
  - context: context.Context
  - request: EnrollRequest

Returns:
  - *Result: The transaction and the seeded progress
  - error: ValidationError, PaymentProvider, Conflict, NotFound or storage errors
*/
func (pipeline *Pipeline) Enroll(context context.Context, request EnrollRequest) (*Result, error) {

	// ── 1. Input Validation ──────────────────────────────────────────────
	request.UserID = strings.TrimSpace(request.UserID)
	request.CourseID = strings.TrimSpace(request.CourseID)
	request.TransactionID = strings.TrimSpace(request.TransactionID)
	request.PaymentProvider = strings.ToLower(strings.TrimSpace(request.PaymentProvider))

	validator := &validate.Validator{}
	validator.Required(FieldUserID, request.UserID)
	validator.Required(FieldCourseID, request.CourseID)
	validator.NonNegative(FieldAmount, request.Amount)
	validator.Required(FieldPaymentProvider, request.PaymentProvider)
	if request.PaymentProvider != "" {
		validator.OneOf(FieldPaymentProvider, request.PaymentProvider, Providers...)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// ── 2. Known Run ─────────────────────────────────────────────────────
	// A confirmation the pipeline has already accepted replays or resumes as
	// stored, even if the course price changed since.
	if request.TransactionID != "" {
		run, err := pipeline.runs.FindByID(context, request.TransactionID)
		switch {
		case err == nil:
			return pipeline.continueRun(context, run, request)
		case !apperr.HasCode(err, apperr.CodeNotFound):
			return nil, err
		}
	}

	// ── 3. Price Check ───────────────────────────────────────────────────
	snapshot, err := pipeline.catalog.GetCourse(context, request.CourseID)
	if err != nil {
		return nil, err
	}

	validator.Custom(FieldAmount, request.Amount != snapshot.Price, "Must equal the course price")
	validator.Custom(FieldTransactionID, request.TransactionID == "" && snapshot.Price > 0, "Required for paid enrollments")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if request.TransactionID == "" {
		request.TransactionID = pipeline.newID()
	}

	// ── 4. Payment Verification ──────────────────────────────────────────
	if pipeline.verifier != nil && snapshot.Price > 0 {
		if err := pipeline.verifier.Verify(context, request.TransactionID, request.Amount); err != nil {
			return nil, err
		}
	}

	// ── 5. Begin or Load the Run ─────────────────────────────────────────
	timestamp := pipeline.now().UTC()
	run, created, err := pipeline.runs.Begin(context, &Run{
		TransactionID:   request.TransactionID,
		UserID:          request.UserID,
		CourseID:        request.CourseID,
		Amount:          request.Amount,
		PaymentProvider: request.PaymentProvider,
		State:           StatePending,
		CreatedAt:       timestamp,
		UpdatedAt:       timestamp,
	})
	if err != nil {
		return nil, err
	}

	if created {
		return pipeline.advance(context, run)
	}

	// A concurrent confirmation of the same payment got there first.
	return pipeline.continueRun(context, run, request)
}

// continueRun picks up a run that already exists for request's transaction id.
func (pipeline *Pipeline) continueRun(ctx context.Context, run *Run, request EnrollRequest) (*Result, error) {
	if run.UserID != request.UserID || run.CourseID != request.CourseID {
		return nil, apperr.Conflict("Transaction already belongs to another purchase")
	}

	if run.State.Done() {
		pipeline.logger.InfoContext(ctx, "enrollment_replayed", slog.String("transaction_id", run.TransactionID))
		return pipeline.result(ctx, run)
	}

	return pipeline.advance(ctx, run)
}

/*
Resume runs the remaining steps of a stored run.

Returns:
  - *Result: The transaction and the seeded progress
  - error: NotFound if no run exists for transactionID, or the failing step's error
*/
func (pipeline *Pipeline) Resume(context context.Context, transactionID string) (*Result, error) {
	run, err := pipeline.runs.FindByID(context, transactionID)
	if err != nil {
		return nil, err
	}

	if run.State.Done() {
		return pipeline.result(context, run)
	}

	return pipeline.advance(context, run)
}

// StaleRuns lists unfinished runs no one has touched since olderThan that
// still have attempts left.
func (pipeline *Pipeline) StaleRuns(context context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Run, error) {
	return pipeline.runs.ListStale(context, olderThan, maxAttempts, limit)
}

// ListTransactions returns a user's receipts, newest first. An empty userID lists all.
func (pipeline *Pipeline) ListTransactions(context context.Context, userID string) ([]*Transaction, error) {
	return pipeline.transactions.ListByUser(context, strings.TrimSpace(userID))
}

// # Steps

// advance executes every step after run.State. Each step is idempotent, so
// re-running one whose completion was never recorded is harmless.
func (pipeline *Pipeline) advance(ctx context.Context, run *Run) (*Result, error) {
	run.Attempts++

	// The snapshot seeds progress; a course deleted mid-purchase stops the run here.
	snapshot, err := pipeline.catalog.GetCourse(ctx, run.CourseID)
	if err != nil {
		return nil, pipeline.fail(ctx, run, err)
	}

	// From here on the writes must not be abandoned halfway by a client disconnect.
	ctx = ctxutil.Detach(ctx)

	result := &Result{}
	for !run.State.Done() {
		var next State

		switch run.State {
		case StatePending:
			result.Transaction, err = pipeline.transactions.Insert(ctx, &Transaction{
				TransactionID:   run.TransactionID,
				DateTime:        pipeline.now().UTC(),
				UserID:          run.UserID,
				CourseID:        run.CourseID,
				Amount:          run.Amount,
				PaymentProvider: run.PaymentProvider,
			})
			next = StateTransactionRecorded

		case StateTransactionRecorded:
			result.Progress, err = pipeline.progress.Seed(ctx, SeedProgress(run.UserID, snapshot, pipeline.now().UTC()))
			next = StateProgressSeeded

		case StateProgressSeeded:
			err = pipeline.catalog.AddEnrollment(ctx, run.CourseID, run.UserID)
			next = StateEnrolled

		default:
			return nil, pipeline.fail(ctx, run, apperr.Internal(errUnknownState(run.State)))
		}

		if err != nil {
			return nil, pipeline.fail(ctx, run, err)
		}

		run.State = next
		run.LastError = ""
		run.UpdatedAt = pipeline.now().UTC()
		if err := pipeline.runs.Save(ctx, run); err != nil {
			return nil, err
		}
	}

	pipeline.logger.InfoContext(ctx, "enrollment_completed",
		slog.String("transaction_id", run.TransactionID),
		slog.String("user_id", run.UserID),
		slog.String("course_id", run.CourseID),
		slog.Int("attempts", run.Attempts),
	)

	return pipeline.fill(ctx, run, result)
}

// fail records err on the run without moving its state.
func (pipeline *Pipeline) fail(ctx context.Context, run *Run, err error) error {
	run.LastError = err.Error()
	if appErr := apperr.As(err); appErr != nil && appErr.Cause != nil {
		run.LastError = appErr.Cause.Error()
	}
	run.UpdatedAt = pipeline.now().UTC()

	pipeline.logger.WarnContext(ctx, "enrollment_step_failed",
		slog.String("transaction_id", run.TransactionID),
		slog.String("state", string(run.State)),
		slog.Int("attempts", run.Attempts),
		slog.Any("error", err),
	)

	if saveErr := pipeline.runs.Save(ctx, run); saveErr != nil {
		pipeline.logger.ErrorContext(ctx, "enrollment_run_save_failed",
			slog.String("transaction_id", run.TransactionID),
			slog.Any("error", saveErr),
		)
	}
	return err
}

func (pipeline *Pipeline) result(ctx context.Context, run *Run) (*Result, error) {
	return pipeline.fill(ctx, run, &Result{})
}

// fill loads whatever part of the result the current call did not produce.
func (pipeline *Pipeline) fill(ctx context.Context, run *Run, result *Result) (*Result, error) {
	var err error
	if result.Transaction == nil {
		if result.Transaction, err = pipeline.transactions.FindByID(ctx, run.TransactionID); err != nil {
			return nil, err
		}
	}
	if result.Progress == nil {
		if result.Progress, err = pipeline.progress.Find(ctx, run.UserID, run.CourseID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type errUnknownState State

func (state errUnknownState) Error() string { return "enrollment run in unknown state " + string(state) }
