// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
)

// Column names of the users table.
const (
	UserID                  = "id"
	UserEmail               = "email"
	UserPasswordHash        = "password_hash"
	UserIsActive            = "is_active"
	UserConfirmedAt         = "confirmed_at"
	UserLastLoginAt         = "last_login_at"
	UserLastLoginIP         = "last_login_ip"
	UserResetCodeHash       = "reset_code_hash"
	UserResetCodeExpiration = "reset_code_expiration"
	UserCreatedAt           = "created_at"
	UserUpdatedAt           = "updated_at"
)

// UserSchema maps models.User to the users table.
func UserSchema() *record.Schema[models.User] {
	return &record.Schema[models.User]{
		Name:  "User",
		Table: "users",
		ID:    func(u *models.User) *string { return &u.ID },
		Columns: []record.Column[models.User]{
			record.Field(UserID, func(u *models.User) *string { return &u.ID }),
			record.Field(UserEmail, func(u *models.User) *string { return &u.Email }),
			record.Field(UserPasswordHash, func(u *models.User) *string { return &u.PasswordHash }),
			record.Field(UserIsActive, func(u *models.User) *bool { return &u.IsActive }),
			record.NullTimeField(UserConfirmedAt, func(u *models.User) **time.Time { return &u.ConfirmedAt }),
			record.NullTimeField(UserLastLoginAt, func(u *models.User) **time.Time { return &u.LastLoginAt }),
			record.NullStringField(UserLastLoginIP, func(u *models.User) **string { return &u.LastLoginIP }),
			record.NullStringField(UserResetCodeHash, func(u *models.User) **string { return &u.ResetCodeHash }),
			record.NullTimeField(UserResetCodeExpiration, func(u *models.User) **time.Time { return &u.ResetCodeExpiration }),
			record.TimeField(UserCreatedAt, func(u *models.User) *time.Time { return &u.CreatedAt }),
			record.TimeField(UserUpdatedAt, func(u *models.User) *time.Time { return &u.UpdatedAt }),
		},
		BeforeSave:   beforeSaveUser,
		BeforeDelete: beforeDeleteUser,
	}
}

// beforeSaveUser maintains the audit columns and the email normal form.
func beforeSaveUser(u *models.User, now time.Time) {
	now = now.UTC()
	u.Email = models.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

func beforeDeleteUser(ctx context.Context, q record.Querier, u *models.User) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM roles_users WHERE user_id = ?`), u.ID); err != nil {
		return fmt.Errorf("failed to remove role links: %w", err)
	}
	return nil
}

// FindUserByEmail looks up a user by normalized email. It returns nil when
// no user matches.
func (r *Repository) FindUserByEmail(ctx context.Context, q record.Querier, email string) (*models.User, error) {
	return r.Users.FindBy(ctx, q, UserEmail, models.NormalizeEmail(email))
}

// GetUserByEmail is FindUserByEmail that reports a missing user as NotFound.
func (r *Repository) GetUserByEmail(ctx context.Context, q record.Querier, email string) (*models.User, error) {
	return r.Users.GetBy(ctx, q, UserEmail, models.NormalizeEmail(email))
}
