// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds typed column-name tables so SQL in the repositories
// never repeats string literals.
package schema

// CatalogCourseTable represents the 'catalog.course' table
type CatalogCourseTable struct {
	Table       string
	ID          string
	TeacherID   string
	TeacherName string
	Title       string
	Description string
	Category    string
	CategoryKey string
	Image       string
	Price       string
	Level       string
	Status      string
	Sections    string
	CreatedAt   string
	UpdatedAt   string
}

// CatalogCourse is the schema definition for catalog.course
var CatalogCourse = CatalogCourseTable{
	Table:       "catalog.course",
	ID:          "id",
	TeacherID:   "teacher_id",
	TeacherName: "teacher_name",
	Title:       "title",
	Description: "description",
	Category:    "category",
	CategoryKey: "category_key",
	Image:       "image",
	Price:       "price",
	Level:       "level",
	Status:      "status",
	Sections:    "sections",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

// CatalogCourseEnrollmentTable represents the 'catalog.course_enrollment' table
type CatalogCourseEnrollmentTable struct {
	Table      string
	CourseID   string
	UserID     string
	EnrolledAt string
}

// CatalogCourseEnrollment is the schema definition for catalog.course_enrollment
var CatalogCourseEnrollment = CatalogCourseEnrollmentTable{
	Table:      "catalog.course_enrollment",
	CourseID:   "course_id",
	UserID:     "user_id",
	EnrolledAt: "enrolled_at",
}
