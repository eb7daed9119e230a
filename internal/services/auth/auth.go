// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the public authentication flows on top of the
// account lifecycle: registration, confirmation, login and password resets.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/email"
	"codeberg.org/oliverandrich/go-account-service/internal/services/security"
)

// TokenTypeBearer is the only token type handed out.
const TokenTypeBearer = "bearer"

var (
	ErrInvalidCredentials = apperr.New(apperr.AuthenticationFailed, "")
	ErrInvalidResetCode   = apperr.New(apperr.AuthenticationFailed, "Invalid or expired reset code")
	ErrAlreadyActivated   = apperr.New(apperr.AuthenticationFailed, "User is already activated")
	ErrSamePassword       = apperr.New(apperr.UnprocessableInput, "New password may not be identical to the previous one")
	ErrInactiveUser       = apperr.New(apperr.BadRequest, "Inactive user")
)

// Token is the bearer token returned by login and password resets.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MailDispatcher queues mails for delivery.
type MailDispatcher interface {
	Dispatch(ctx context.Context, msg email.Message)
}

type Service struct {
	repo              *repository.Repository
	accounts          *account.Service
	hasher            *security.Hasher
	tokens            *security.TokenIssuer
	mail              MailDispatcher
	passwordValidator *PasswordValidator
	baseURL           string
}

func NewService(
	repo *repository.Repository,
	accounts *account.Service,
	hasher *security.Hasher,
	tokens *security.TokenIssuer,
	mail MailDispatcher,
	baseURL string,
) *Service {
	return &Service{
		repo:              repo,
		accounts:          accounts,
		hasher:            hasher,
		tokens:            tokens,
		mail:              mail,
		passwordValidator: DefaultPasswordValidator(),
		baseURL:           baseURL,
	}
}

// ValidatePassword checks password against the policy. The returned error
// carries every failed rule and reads as the first one.
func (s *Service) ValidatePassword(password string) error {
	validation := s.passwordValidator.Validate(password)
	if validation.Valid {
		return nil
	}
	verr := &PasswordValidationError{Errors: validation.Errors}
	return apperr.Wrap(apperr.UnprocessableInput, verr, verr.Error())
}

// Register creates an unconfirmed account and mails the confirmation link.
func (s *Service) Register(ctx context.Context, q record.Querier, emailAddr, password string) (*models.User, error) {
	if err := s.ValidatePassword(password); err != nil {
		return nil, err
	}

	user, code, err := s.accounts.Register(ctx, q, emailAddr, password)
	if err != nil {
		return nil, err
	}

	s.mail.Dispatch(ctx, email.Message{
		Kind: email.KindConfirmation,
		To:   user.Email,
		Link: email.ConfirmationLink(s.baseURL, user.Email, code.Code),
	})

	return user, nil
}

// Confirm activates the account behind emailAddr when code is its
// outstanding confirmation code.
func (s *Service) Confirm(ctx context.Context, q record.Querier, emailAddr, code string) error {
	user, err := s.repo.FindUserByEmail(ctx, q, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.hasher.DummyVerify(code)
		slog.Warn("confirm_failed", "email", emailAddr, "reason", "user_not_found")
		return ErrInvalidResetCode
	}

	if !s.accounts.VerifyResetCode(user, code) {
		slog.Warn("confirm_failed", "user_id", user.ID, "reason", "invalid_code")
		return ErrInvalidResetCode
	}

	if user.IsActive {
		slog.Warn("confirm_failed", "user_id", user.ID, "reason", "already_active")
		return ErrAlreadyActivated
	}

	return s.accounts.Confirm(ctx, q, user)
}

// Login exchanges credentials of a confirmed account for a bearer token.
// Unknown, unconfirmed and wrong-password attempts fail alike.
func (s *Service) Login(ctx context.Context, q record.Querier, emailAddr, password, ip string) (Token, error) {
	user, err := s.repo.FindUserByEmail(ctx, q, emailAddr)
	if err != nil {
		return Token{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.ConfirmedAt == nil || !user.IsActive {
		s.hasher.DummyVerify(password)
		slog.Warn("login_failed", "email", emailAddr, "reason", "user_not_found_or_unconfirmed")
		return Token{}, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "invalid_password")
		return Token{}, ErrInvalidCredentials
	}

	if err := s.accounts.RecordLogin(ctx, q, user, ip); err != nil {
		return Token{}, err
	}

	slog.Info("login_success", "user_id", user.ID)
	return s.issueToken(user)
}

// ForgotPassword mails a reset link. Unknown addresses succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, q record.Querier, emailAddr string) error {
	// The code is generated before the lookup so both branches cost the same.
	code, err := s.accounts.GenerateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	user, err := s.repo.FindUserByEmail(ctx, q, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		slog.Warn("forgot_password_unknown_email", "email", emailAddr)
		return nil
	}

	if err := s.accounts.IssueResetCode(ctx, q, user, code); err != nil {
		return err
	}

	s.mail.Dispatch(ctx, email.Message{
		Kind: email.KindPasswordReset,
		To:   user.Email,
		Link: email.PasswordResetLink(s.baseURL, user.Email, code.Code),
	})
	return nil
}

// CheckResetCode reports whether code is valid for emailAddr without
// consuming it.
func (s *Service) CheckResetCode(ctx context.Context, q record.Querier, emailAddr, code string) error {
	_, err := s.verifiedUser(ctx, q, emailAddr, code)
	return err
}

// ResetPassword replaces the password of the account behind emailAddr and
// logs the user in.
func (s *Service) ResetPassword(ctx context.Context, q record.Querier, emailAddr, code, newPassword string) (Token, error) {
	if err := s.ValidatePassword(newPassword); err != nil {
		return Token{}, err
	}

	user, err := s.verifiedUser(ctx, q, emailAddr, code)
	if err != nil {
		return Token{}, err
	}

	if s.hasher.Verify(newPassword, user.PasswordHash) {
		return Token{}, ErrSamePassword
	}

	if err := s.accounts.ChangePassword(ctx, q, user, newPassword); err != nil {
		return Token{}, err
	}

	return s.issueToken(user)
}

// ResendConfirmation issues a fresh confirmation code and mails it.
func (s *Service) ResendConfirmation(ctx context.Context, q record.Querier, emailAddr string) error {
	user, err := s.repo.GetUserByEmail(ctx, q, emailAddr)
	if err != nil {
		return err
	}

	code, err := s.accounts.GenerateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate confirmation code: %w", err)
	}
	if err := s.accounts.IssueResetCode(ctx, q, user, code); err != nil {
		return err
	}

	s.mail.Dispatch(ctx, email.Message{
		Kind: email.KindConfirmation,
		To:   user.Email,
		Link: email.ConfirmationLink(s.baseURL, user.Email, code.Code),
	})
	return nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, q record.Querier, token string) (*models.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByEmail(ctx, q, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, q record.Querier, opts record.ListOptions) (record.Page[models.User], error) {
	return s.repo.Users.GetAll(ctx, q, opts)
}

func (s *Service) verifiedUser(ctx context.Context, q record.Querier, emailAddr, code string) (*models.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, q, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.hasher.DummyVerify(code)
		slog.Warn("reset_code_rejected", "email", emailAddr, "reason", "user_not_found")
		return nil, ErrInvalidResetCode
	}
	if !s.accounts.VerifyResetCode(user, code) {
		slog.Warn("reset_code_rejected", "user_id", user.ID, "reason", "invalid_code")
		return nil, ErrInvalidResetCode
	}
	return user, nil
}

func (s *Service) issueToken(user *models.User) (Token, error) {
	accessToken, err := s.tokens.Issue(user.Email, 0)
	if err != nil {
		return Token{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return Token{AccessToken: accessToken, TokenType: TokenTypeBearer}, nil
}
