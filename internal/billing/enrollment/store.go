// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrollment

import (
	"context"
	"time"
)

// # Repository Contracts

// RunRepository persists pipeline progress.
type RunRepository interface {
	// Begin inserts run unless one already exists for its transaction id.
	// It returns the stored run and whether this call created it.
	Begin(ctx context.Context, run *Run) (*Run, bool, error)
	FindByID(ctx context.Context, transactionID string) (*Run, error)
	// Save writes state, attempts, last error and updated-at.
	Save(ctx context.Context, run *Run) error
	// ListStale returns unfinished runs last touched before olderThan with fewer
	// than maxAttempts attempts, oldest first.
	ListStale(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Run, error)
}

// TransactionRepository persists purchase receipts.
type TransactionRepository interface {
	// Insert records txn once. A duplicate id is not an error: the prior row is returned.
	Insert(ctx context.Context, txn *Transaction) (*Transaction, error)
	FindByID(ctx context.Context, transactionID string) (*Transaction, error)
	// ListByUser returns the user's transactions, newest first. An empty userID lists all.
	ListByUser(ctx context.Context, userID string) ([]*Transaction, error)
}

// ProgressRepository persists learner progress.
type ProgressRepository interface {
	// Seed creates progress for (user, course) once and returns the stored record.
	Seed(ctx context.Context, progress *UserCourseProgress) (*UserCourseProgress, error)
	Find(ctx context.Context, userID, courseID string) (*UserCourseProgress, error)
}
