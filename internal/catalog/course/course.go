// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package course defines the catalog aggregate of the Academia marketplace.

A Course is authored by one teacher and carries an ordered tree of Sections
and Chapters. The package owns the rules that keep that tree consistent across
edits (see [Reconcile]) and the conversion of displayed prices into the integer
minor units the payment processor charges (see [ToMinorUnits]).

Core Responsibility:

  - Catalogue: Courses, their levels and publication status.
  - Content: Identity-stable Sections and Chapters.
  - Membership: The append-only enrollment set written by billing.
*/
package course

import "time"

// # Domain Enums

// Status represents the publication status of a course.
type Status string

const (
	// StatusDraft is the initial state; only the owner sees the course in the dashboard.
	StatusDraft Status = "Draft"

	// StatusPublished makes the course purchasable in the storefront.
	StatusPublished Status = "Published"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Level classifies the expected experience of the learner.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// IsValid reports whether l is a recognised [Level] value.
func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// ChapterType describes how the chapter content is rendered.
type ChapterType string

const (
	ChapterText  ChapterType = "Text"
	ChapterQuiz  ChapterType = "Quiz"
	ChapterVideo ChapterType = "Video"
)

// IsValid reports whether t is a recognised [ChapterType] value.
func (t ChapterType) IsValid() bool {
	switch t {
	case ChapterText, ChapterQuiz, ChapterVideo:
		return true
	}
	return false
}

// # Defaults

const (
	// CategoryAll is the listing sentinel that disables category filtering.
	CategoryAll = "all"

	DefaultTitle    = "Untitled Course"
	DefaultCategory = "Uncategorized"
)

// # Core Entities

// Course is the central aggregate of the catalog.
type Course struct {
	ID          string       `json:"courseId"`
	TeacherID   string       `json:"teacherId"`
	TeacherName string       `json:"teacherName"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Image       string       `json:"image"`
	Price       int64        `json:"price"` // Minor units (cents)
	Level       Level        `json:"level"`
	Status      Status       `json:"status"`
	Sections    []Section    `json:"sections"`
	Enrollments []Enrollment `json:"enrollments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// IsEnrolled reports whether userID is in the enrollment set.
func (course *Course) IsEnrolled(userID string) bool {
	for _, enrollment := range course.Enrollments {
		if enrollment.UserID == userID {
			return true
		}
	}
	return false
}

// Section is an ordered group of chapters. Its SectionID never changes once minted.
type Section struct {
	SectionID          string    `json:"sectionId"`
	SectionTitle       string    `json:"sectionTitle"`
	SectionDescription string    `json:"sectionDescription"`
	Chapters           []Chapter `json:"chapters"`
}

// Chapter is a single unit of content. Its ChapterID never changes once minted.
type Chapter struct {
	ChapterID string      `json:"chapterId"`
	Type      ChapterType `json:"type"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Video     string      `json:"video,omitempty"`
}

// Enrollment is a membership record in the course enrollment set.
type Enrollment struct {
	UserID string `json:"userId"`
}

// # Inputs

// CreateInput carries the fields accepted when opening a new course.
type CreateInput struct {
	TeacherID   string
	TeacherName string
}

// SectionInput is an edited section. An empty SectionID marks a new section.
type SectionInput struct {
	SectionID          string         `json:"sectionId,omitempty"`
	SectionTitle       string         `json:"sectionTitle"`
	SectionDescription string         `json:"sectionDescription"`
	Chapters           []ChapterInput `json:"chapters"`
}

// ChapterInput is an edited chapter. An empty ChapterID marks a new chapter.
type ChapterInput struct {
	ChapterID string      `json:"chapterId,omitempty"`
	Type      ChapterType `json:"type"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Video     string      `json:"video,omitempty"`
}

// UpdateInput is a partial update. Nil fields leave the stored value untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Image       *string
	Level       *Level
	Status      *Status

	// Price is the displayed whole-unit price, converted by [ToMinorUnits].
	Price *string

	// Sections replaces the whole content tree, merged by [Reconcile].
	Sections *[]SectionInput
}
