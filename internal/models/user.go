// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// AccountState is the confirmation state of a user account.
type AccountState string

const (
	StateUnconfirmed AccountState = "unconfirmed"
	StateActive      AccountState = "active"
)

// ResetCodeState describes the user's outstanding one-time code.
type ResetCodeState string

const (
	ResetCodeNone    ResetCodeState = "no_code"
	ResetCodePending ResetCodeState = "code_pending"
	ResetCodeExpired ResetCodeState = "expired"
)

type User struct { //nolint:govet // fieldalignment not critical for models
	ID                  string     `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	ConfirmedAt         *time.Time `db:"confirmed_at" json:"confirmed_at"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at"`
	LastLoginIP         *string    `db:"last_login_ip" json:"last_login_ip"`
	ResetCodeHash       *string    `db:"reset_code_hash" json:"-"`
	ResetCodeExpiration *time.Time `db:"reset_code_expiration" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) State() AccountState {
	if u.IsActive {
		return StateActive
	}
	return StateUnconfirmed
}

// ResetCodeState reports the code sub-state at now. Expiry is detected
// lazily here and never swept.
func (u *User) ResetCodeState(now time.Time) ResetCodeState {
	if u.ResetCodeHash == nil || u.ResetCodeExpiration == nil {
		return ResetCodeNone
	}
	if !now.Before(*u.ResetCodeExpiration) {
		return ResetCodeExpired
	}
	return ResetCodePending
}
