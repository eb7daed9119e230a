// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// Role is a named permission group. Roles are persisted but no flow
// checks them yet.
type Role struct { //nolint:govet // fieldalignment not critical for models
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// RoleUser links a user to a role.
type RoleUser struct {
	UserID string `db:"user_id" json:"user_id"`
	RoleID string `db:"role_id" json:"role_id"`
}
