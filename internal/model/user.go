// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// UserRole is the platform role carried by a session.
type UserRole string

const (
	UserRoleDonor    UserRole = "donor"
	UserRoleHospital UserRole = "hospital"
	UserRoleAdmin    UserRole = "admin"
)

// ParseUserRole normalises s. Unknown values are returned lowercased and
// trimmed; callers decide whether to accept them.
func ParseUserRole(s string) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether r is one of the three platform roles.
func (r UserRole) Known() bool {
	switch r {
	case UserRoleDonor, UserRoleHospital, UserRoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may use the management console.
func (r UserRole) IsStaff() bool {
	return r == UserRoleHospital || r == UserRoleAdmin
}

// User is the normalised profile persisted with the session.
type User struct {
	ID         string `json:"id,omitempty"`
	HospitalID string `json:"hospitalId,omitempty"`
	DonorID    string `json:"donorId,omitempty"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
}

// IsZero reports whether no profile field is set.
func (u User) IsZero() bool {
	return u == User{}
}

// DisplayName returns the name, falling back to the email then the id.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}
