// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account implements the user account lifecycle: registration,
// confirmation and the one-time code used for confirmation and password
// resets.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/security"
)

var ErrEmailTaken = apperr.New(apperr.Conflict, "email already registered")

type Service struct {
	repo     *repository.Repository
	hasher   *security.Hasher
	now      func() time.Time
	codeTTL  time.Duration
	codeSize int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the clock used for expirations and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo *repository.Repository, hasher *security.Hasher, codeTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		hasher:   hasher,
		now:      time.Now,
		codeTTL:  codeTTL,
		codeSize: security.DefaultResetCodeBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// GenerateResetCode creates a new one-time code without storing it.
func (s *Service) GenerateResetCode() (security.ResetCode, error) {
	return s.hasher.GenerateResetCode(s.codeSize)
}

// Register creates an unconfirmed user with a fresh confirmation code. The
// plaintext code is returned once for the confirmation link.
func (s *Service) Register(ctx context.Context, q record.Querier, email, password string) (*models.User, security.ResetCode, error) {
	email = models.NormalizeEmail(email)

	existing, err := s.repo.FindUserByEmail(ctx, q, email)
	if err != nil {
		return nil, security.ResetCode{}, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, security.ResetCode{}, ErrEmailTaken
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, security.ResetCode{}, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := s.GenerateResetCode()
	if err != nil {
		return nil, security.ResetCode{}, fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	user, err := s.repo.Users.Create(ctx, q, record.Values{
		repository.UserEmail:               email,
		repository.UserPasswordHash:        passwordHash,
		repository.UserIsActive:            false,
		repository.UserResetCodeHash:       code.Hash,
		repository.UserResetCodeExpiration: s.Now().Add(s.codeTTL),
	})
	if err != nil {
		// A concurrent registration may have taken the address since the lookup.
		if database.IsUniqueViolation(err) {
			return nil, security.ResetCode{}, ErrEmailTaken
		}
		return nil, security.ResetCode{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user_registered", "user_id", user.ID, "email", user.Email)
	return user, code, nil
}

// VerifyResetCode reports whether code is the user's outstanding, unexpired
// one-time code. The hash comparison runs even for expired codes.
func (s *Service) VerifyResetCode(user *models.User, code string) bool {
	if user.ResetCodeHash == nil {
		s.hasher.DummyVerify(code)
		return false
	}

	matches := s.hasher.Verify(code, *user.ResetCodeHash)
	return matches && user.ResetCodeState(s.Now()) == models.ResetCodePending
}

// Confirm activates the account and consumes the code.
func (s *Service) Confirm(ctx context.Context, q record.Querier, user *models.User) error {
	_, _, _, err := s.repo.Users.Update(ctx, q, user, record.Values{
		repository.UserIsActive:            true,
		repository.UserConfirmedAt:         s.Now(),
		repository.UserResetCodeHash:       nil,
		repository.UserResetCodeExpiration: nil,
	})
	if err != nil {
		return fmt.Errorf("failed to confirm user: %w", err)
	}

	slog.Info("user_confirmed", "user_id", user.ID)
	return nil
}

// IssueResetCode stores code as the user's only outstanding code,
// replacing any previous one.
func (s *Service) IssueResetCode(ctx context.Context, q record.Querier, user *models.User, code security.ResetCode) error {
	_, _, _, err := s.repo.Users.Update(ctx, q, user, record.Values{
		repository.UserResetCodeHash:       code.Hash,
		repository.UserResetCodeExpiration: s.Now().Add(s.codeTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// ChangePassword replaces the password hash and consumes the code.
func (s *Service) ChangePassword(ctx context.Context, q record.Querier, user *models.User, newPassword string) error {
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, _, _, err = s.repo.Users.Update(ctx, q, user, record.Values{
		repository.UserPasswordHash:        passwordHash,
		repository.UserResetCodeHash:       nil,
		repository.UserResetCodeExpiration: nil,
	})
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	slog.Info("password_changed", "user_id", user.ID)
	return nil
}

// RecordLogin stores when and from where the user last logged in.
func (s *Service) RecordLogin(ctx context.Context, q record.Querier, user *models.User, ip string) error {
	data := record.Values{repository.UserLastLoginAt: s.Now()}
	if ip != "" {
		data[repository.UserLastLoginIP] = ip
	}

	_, _, _, err := s.repo.Users.Update(ctx, q, user, data, record.WithoutSaveIfNoDiff())
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}
