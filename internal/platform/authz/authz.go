// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authz centralizes the ownership and role decisions consulted by every
mutating operation in the marketplace.

Handlers never compare user ids themselves: the services call the
[Authorizer] with the caller claims and the owner recorded on the resource.
*/
package authz

import (
	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/sec"
)

// Authorizer decides whether a caller may perform a mutating operation.
type Authorizer struct{}

// New returns the marketplace authorizer.
func New() *Authorizer {
	return &Authorizer{}
}

/*
CanCreateCourse allows teachers (and admins) to open a course for teacherID.

Returns:
  - nil when the caller is a teacher creating a course for themselves
  - apperr.Unauthorized / apperr.Forbidden otherwise
*/
func (authorizer *Authorizer) CanCreateCourse(claims *sec.AuthClaims, teacherID string) error {
	if claims == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if !claims.Role.Allows(sec.RoleTeacher) {
		return apperr.Forbidden("Only teachers can create courses")
	}
	if claims.Role != sec.RoleAdmin && claims.UserID != teacherID {
		return apperr.Forbidden("Courses can only be created for your own account")
	}
	return nil
}

/*
CanMutateCourse allows the owner of a course to update or delete it.

Admins are not exempt: course content belongs to its teacher.
*/
func (authorizer *Authorizer) CanMutateCourse(claims *sec.AuthClaims, teacherID string) error {
	if claims == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if claims.UserID != teacherID {
		return apperr.Forbidden("Not authorized to modify this course")
	}
	return nil
}

// CanEnroll allows callers to purchase only for themselves unless they are admins.
func (authorizer *Authorizer) CanEnroll(claims *sec.AuthClaims, userID string) error {
	if claims == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if claims.Role != sec.RoleAdmin && claims.UserID != userID {
		return apperr.Forbidden("Enrollment can only be purchased for your own account")
	}
	return nil
}

// CanListTransactions allows callers to read their own history; admins may read
// anyone's, including the unfiltered list (empty userID).
func (authorizer *Authorizer) CanListTransactions(claims *sec.AuthClaims, userID string) error {
	if claims == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if claims.Role == sec.RoleAdmin {
		return nil
	}
	if userID == "" || claims.UserID != userID {
		return apperr.Forbidden("Transactions can only be listed for your own account")
	}
	return nil
}
