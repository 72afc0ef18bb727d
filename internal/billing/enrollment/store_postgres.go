// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
PostgreSQL implementation of the billing data access.

Every write that the pipeline may repeat is an INSERT ... ON CONFLICT DO
NOTHING followed, when nothing was inserted, by a read of the prior row.
*/
package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/database/schema"
	"github.com/taibuivan/academia/internal/platform/dberr"
	"github.com/taibuivan/academia/internal/platform/postgres"
)

const (
	resourceRun         = "Enrollment run"
	resourceTransaction = "Transaction"
	resourceProgress    = "Course progress"
)

// # Enrollment Runs

type runRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewRunRepository constructs a PostgreSQL backed [RunRepository].
func NewRunRepository(pool *pgxpool.Pool, timeout time.Duration) RunRepository {
	return &runRepository{pool: pool, timeout: timeout}
}

func runColumns() string {
	r := schema.BillingEnrollmentRun
	return strings.Join([]string{
		r.TransactionID, r.UserID, r.CourseID, r.Amount, r.PaymentProvider,
		r.State, r.Attempts, r.LastError, r.CreatedAt, r.UpdatedAt,
	}, ", ")
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.TransactionID, &run.UserID, &run.CourseID, &run.Amount, &run.PaymentProvider,
		&run.State, &run.Attempts, &run.LastError, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (repository *runRepository) Begin(context context.Context, run *Run) (*Run, bool, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	r := schema.BillingEnrollmentRun
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (%s) DO NOTHING
		RETURNING %s
	`, r.Table, runColumns(), r.TransactionID, runColumns())

	created, err := scanRun(repository.pool.QueryRow(ctx, query,
		run.TransactionID, run.UserID, run.CourseID, run.Amount, run.PaymentProvider,
		run.State, run.Attempts, run.LastError, run.CreatedAt, run.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, dberr.Wrap(err, resourceRun, "begin enrollment run")
	}

	// Conflict: somebody already started this purchase.
	existing, err := repository.FindByID(ctx, run.TransactionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (repository *runRepository) FindByID(context context.Context, transactionID string) (*Run, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	r := schema.BillingEnrollmentRun
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", runColumns(), r.Table, r.TransactionID)

	run, err := scanRun(repository.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, dberr.Wrap(err, resourceRun, "find enrollment run")
	}
	return run, nil
}

func (repository *runRepository) Save(context context.Context, run *Run) error {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	r := schema.BillingEnrollmentRun
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5
		WHERE %s = $1
	`, r.Table, r.State, r.Attempts, r.LastError, r.UpdatedAt, r.TransactionID)

	tag, err := repository.pool.Exec(ctx, query, run.TransactionID, run.State, run.Attempts, run.LastError, run.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, resourceRun, "save enrollment run")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceRun)
	}
	return nil
}

func (repository *runRepository) ListStale(context context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Run, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	r := schema.BillingEnrollmentRun
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s <> $1 AND %s < $2 AND %s < $3
		ORDER BY %s ASC
		LIMIT $4
	`, runColumns(), r.Table, r.State, r.UpdatedAt, r.Attempts, r.UpdatedAt)

	rows, err := repository.pool.Query(ctx, query, StateEnrolled, olderThan, maxAttempts, limit)
	if err != nil {
		return nil, dberr.Wrap(err, resourceRun, "list stale runs")
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceRun, "scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceRun, "iterate runs")
	}
	return runs, nil
}

// # Transactions

type transactionRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTransactionRepository constructs a PostgreSQL backed [TransactionRepository].
func NewTransactionRepository(pool *pgxpool.Pool, timeout time.Duration) TransactionRepository {
	return &transactionRepository{pool: pool, timeout: timeout}
}

func transactionColumns() string {
	t := schema.BillingTransaction
	return strings.Join([]string{t.ID, t.DateTime, t.UserID, t.CourseID, t.Amount, t.PaymentProvider}, ", ")
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var txn Transaction
	if err := row.Scan(&txn.TransactionID, &txn.DateTime, &txn.UserID, &txn.CourseID, &txn.Amount, &txn.PaymentProvider); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (repository *transactionRepository) Insert(context context.Context, txn *Transaction) (*Transaction, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	t := schema.BillingTransaction
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s) DO NOTHING
		RETURNING %s
	`, t.Table, transactionColumns(), t.ID, transactionColumns())

	created, err := scanTransaction(repository.pool.QueryRow(ctx, query,
		txn.TransactionID, txn.DateTime, txn.UserID, txn.CourseID, txn.Amount, txn.PaymentProvider,
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, dberr.Wrap(err, resourceTransaction, "insert transaction")
	}

	return repository.FindByID(ctx, txn.TransactionID)
}

func (repository *transactionRepository) FindByID(context context.Context, transactionID string) (*Transaction, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	t := schema.BillingTransaction
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", transactionColumns(), t.Table, t.ID)

	txn, err := scanTransaction(repository.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, dberr.Wrap(err, resourceTransaction, "find transaction")
	}
	return txn, nil
}

func (repository *transactionRepository) ListByUser(context context.Context, userID string) ([]*Transaction, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	t := schema.BillingTransaction

	var queryBuilder strings.Builder
	var args []any
	queryBuilder.WriteString(fmt.Sprintf("SELECT %s FROM %s", transactionColumns(), t.Table))
	if userID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE %s = $1", t.UserID))
		args = append(args, userID)
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s DESC", t.DateTime))

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, resourceTransaction, "list transactions")
	}
	defer rows.Close()

	transactions := []*Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceTransaction, "scan transaction")
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceTransaction, "iterate transactions")
	}
	return transactions, nil
}

// # Progress

type progressRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewProgressRepository constructs a PostgreSQL backed [ProgressRepository].
func NewProgressRepository(pool *pgxpool.Pool, timeout time.Duration) ProgressRepository {
	return &progressRepository{pool: pool, timeout: timeout}
}

func progressColumns() string {
	p := schema.BillingUserCourseProgress
	return strings.Join([]string{
		p.UserID, p.CourseID, p.EnrollmentDate, p.OverallProgress, p.LastAccessedTimestamp, p.Sections,
	}, ", ")
}

func scanProgress(row pgx.Row) (*UserCourseProgress, error) {
	var progress UserCourseProgress
	var sections []byte

	err := row.Scan(
		&progress.UserID, &progress.CourseID, &progress.EnrollmentDate,
		&progress.OverallProgress, &progress.LastAccessedTimestamp, &sections,
	)
	if err != nil {
		return nil, err
	}

	progress.Sections = []SectionProgress{}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &progress.Sections); err != nil {
			return nil, fmt.Errorf("decode progress sections: %w", err)
		}
	}
	return &progress, nil
}

func (repository *progressRepository) Seed(context context.Context, progress *UserCourseProgress) (*UserCourseProgress, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	sections, err := json.Marshal(progress.Sections)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("encode progress sections: %w", err))
	}

	p := schema.BillingUserCourseProgress
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s, %s) DO NOTHING
		RETURNING %s
	`, p.Table, progressColumns(), p.UserID, p.CourseID, progressColumns())

	created, err := scanProgress(repository.pool.QueryRow(ctx, query,
		progress.UserID, progress.CourseID, progress.EnrollmentDate,
		progress.OverallProgress, progress.LastAccessedTimestamp, sections,
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, dberr.Wrap(err, resourceProgress, "seed progress")
	}

	return repository.Find(ctx, progress.UserID, progress.CourseID)
}

func (repository *progressRepository) Find(context context.Context, userID, courseID string) (*UserCourseProgress, error) {
	ctx, cancel := postgres.Bounded(context, repository.timeout)
	defer cancel()

	p := schema.BillingUserCourseProgress
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2", progressColumns(), p.Table, p.UserID, p.CourseID)

	progress, err := scanProgress(repository.pool.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		return nil, dberr.Wrap(err, resourceProgress, "find progress")
	}
	return progress, nil
}
