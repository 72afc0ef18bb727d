// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// BillingTransactionTable represents the 'billing.transaction' table
type BillingTransactionTable struct {
	Table           string
	ID              string
	UserID          string
	CourseID        string
	Amount          string
	PaymentProvider string
	DateTime        string
}

// BillingTransaction is the schema definition for billing.transaction
var BillingTransaction = BillingTransactionTable{
	Table:           "billing.transaction",
	ID:              "id",
	UserID:          "user_id",
	CourseID:        "course_id",
	Amount:          "amount",
	PaymentProvider: "payment_provider",
	DateTime:        "date_time",
}

// BillingUserCourseProgressTable represents the 'billing.user_course_progress' table
type BillingUserCourseProgressTable struct {
	Table                 string
	UserID                string
	CourseID              string
	EnrollmentDate        string
	OverallProgress       string
	LastAccessedTimestamp string
	Sections              string
}

// BillingUserCourseProgress is the schema definition for billing.user_course_progress
var BillingUserCourseProgress = BillingUserCourseProgressTable{
	Table:                 "billing.user_course_progress",
	UserID:                "user_id",
	CourseID:              "course_id",
	EnrollmentDate:        "enrollment_date",
	OverallProgress:       "overall_progress",
	LastAccessedTimestamp: "last_accessed_timestamp",
	Sections:              "sections",
}

// BillingEnrollmentRunTable represents the 'billing.enrollment_run' table
type BillingEnrollmentRunTable struct {
	Table           string
	TransactionID   string
	UserID          string
	CourseID        string
	Amount          string
	PaymentProvider string
	State           string
	Attempts        string
	LastError       string
	CreatedAt       string
	UpdatedAt       string
}

// BillingEnrollmentRun is the schema definition for billing.enrollment_run
var BillingEnrollmentRun = BillingEnrollmentRunTable{
	Table:           "billing.enrollment_run",
	TransactionID:   "transaction_id",
	UserID:          "user_id",
	CourseID:        "course_id",
	Amount:          "amount",
	PaymentProvider: "payment_provider",
	State:           "state",
	Attempts:        "attempts",
	LastError:       "last_error",
	CreatedAt:       "created_at",
	UpdatedAt:       "updated_at",
}
