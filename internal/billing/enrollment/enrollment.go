// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package enrollment turns a confirmed purchase into course membership.

A purchase touches three records that live in different tables: the
immutable Transaction, the learner's seeded UserCourseProgress and the
course's enrollment set. There is no cross-record transaction, so every
purchase is driven by a persisted Run that moves forward one idempotent step
at a time:

	Pending -> TransactionRecorded -> ProgressSeeded -> Enrolled

A failed step leaves the Run at its last completed state with the error
recorded. Calling Enroll again with the same transaction id, or the
recovery sweep, picks it up from there.
*/
package enrollment

import (
	"time"

	"github.com/taibuivan/academia/internal/catalog/course"
	"github.com/taibuivan/academia/pkg/slice"
)

// # Run State Machine

// State is the last step a [Run] completed.
type State string

const (
	StatePending             State = "Pending"
	StateTransactionRecorded State = "TransactionRecorded"
	StateProgressSeeded      State = "ProgressSeeded"
	StateEnrolled            State = "Enrolled"
)

// Done reports whether nothing is left to do.
func (s State) Done() bool { return s == StateEnrolled }

// ProviderStripe is the only payment provider the marketplace accepts.
const ProviderStripe = "stripe"

// Providers lists the accepted payment providers.
var Providers = []string{ProviderStripe}

// Run tracks one purchase through the pipeline.
type Run struct {
	TransactionID   string    `json:"transactionId"`
	UserID          string    `json:"userId"`
	CourseID        string    `json:"courseId"`
	Amount          int64     `json:"amount"`
	PaymentProvider string    `json:"paymentProvider"`
	State           State     `json:"state"`
	Attempts        int       `json:"attempts"`
	LastError       string    `json:"lastError,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// # Records

// Transaction is the immutable receipt of a purchase.
type Transaction struct {
	TransactionID   string    `json:"transactionId"`
	DateTime        time.Time `json:"dateTime"`
	UserID          string    `json:"userId"`
	CourseID        string    `json:"courseId"`
	Amount          int64     `json:"amount"` // Minor units (cents)
	PaymentProvider string    `json:"paymentProvider"`
}

// ChapterProgress records completion of a single chapter.
type ChapterProgress struct {
	ChapterID string `json:"chapterId"`
	Completed bool   `json:"completed"`
}

// SectionProgress mirrors a course section.
type SectionProgress struct {
	SectionID string            `json:"sectionId"`
	Chapters  []ChapterProgress `json:"chapters"`
}

// UserCourseProgress tracks one learner through one course.
type UserCourseProgress struct {
	UserID                string            `json:"userId"`
	CourseID              string            `json:"courseId"`
	EnrollmentDate        time.Time         `json:"enrollmentDate"`
	OverallProgress       int               `json:"overallProgress"`
	LastAccessedTimestamp time.Time         `json:"lastAccessedTimestamp"`
	Sections              []SectionProgress `json:"sections"`
}

// # Inputs & Outputs

// EnrollRequest is what the storefront reports after the payment is confirmed.
type EnrollRequest struct {
	UserID          string
	CourseID        string
	TransactionID   string // payment intent id; generated when empty
	Amount          int64
	PaymentProvider string
}

// Result is returned to the purchaser once enrolled.
type Result struct {
	Transaction *Transaction        `json:"transaction"`
	Progress    *UserCourseProgress `json:"courseProgress"`
}

// SeedProgress builds the initial progress record from a course snapshot:
// every chapter known at purchase time, none completed.
func SeedProgress(userID string, snapshot *course.Course, at time.Time) *UserCourseProgress {
	sections := slice.Map(snapshot.Sections, func(section course.Section) SectionProgress {
		return SectionProgress{
			SectionID: section.SectionID,
			Chapters: slice.Map(section.Chapters, func(chapter course.Chapter) ChapterProgress {
				return ChapterProgress{ChapterID: chapter.ChapterID}
			}),
		}
	})

	return &UserCourseProgress{
		UserID:                userID,
		CourseID:              snapshot.ID,
		EnrollmentDate:        at,
		OverallProgress:       0,
		LastAccessedTimestamp: at,
		Sections:              sections,
	}
}
