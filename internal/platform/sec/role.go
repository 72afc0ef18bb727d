// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can publish courses and manage the ones they own
	RoleTeacher UserRole = "teacher"

	// Default role: browses the catalog and purchases courses
	RoleStudent UserRole = "student"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Allows reports whether r satisfies any of the required roles.
// Admin satisfies every requirement; the other roles only match themselves,
// since teaching and purchasing are separate capabilities.
func (r UserRole) Allows(required ...UserRole) bool {
	if r == RoleAdmin {
		return true
	}
	for _, role := range required {
		if r == role {
			return true
		}
	}
	return false
}
