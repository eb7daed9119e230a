// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/auth"
	"codeberg.org/oliverandrich/go-account-service/internal/services/email"
	"codeberg.org/oliverandrich/go-account-service/internal/services/security"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestSecretKey signs tokens in tests.
const TestSecretKey = "test-secret-key"

// TestBaseURL is the link base used by test services.
const TestBaseURL = "http://localhost:8000/"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New()
}

// NewTestUser inserts a user with the given email and password hash.
func NewTestUser(t *testing.T, q record.Querier, repo *repository.Repository, emailAddr, passwordHash string, active bool) *models.User {
	t.Helper()
	user, err := repo.Users.Create(context.Background(), q, record.Values{
		repository.UserEmail:        emailAddr,
		repository.UserPasswordHash: passwordHash,
		repository.UserIsActive:     active,
	})
	require.NoError(t, err)
	return user
}

// RecordingMailer captures messages instead of delivering them.
type RecordingMailer struct {
	mu       sync.Mutex
	messages []email.Rendered
	Err      error
}

func (m *RecordingMailer) Send(_ context.Context, msg email.Rendered) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.Err
}

// Messages returns a copy of everything sent so far.
func (m *RecordingMailer) Messages() []email.Rendered {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Rendered(nil), m.messages...)
}

// Last returns the most recent message, or false if none was sent.
func (m *RecordingMailer) Last() (email.Rendered, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return email.Rendered{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// RecordingDispatcher captures queued mails synchronously.
type RecordingDispatcher struct {
	mu       sync.Mutex
	messages []email.Message
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, msg email.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
}

// Messages returns a copy of everything dispatched so far.
func (d *RecordingDispatcher) Messages() []email.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]email.Message(nil), d.messages...)
}

// Last returns the most recent message, or false if none was dispatched.
func (d *RecordingDispatcher) Last() (email.Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.messages) == 0 {
		return email.Message{}, false
	}
	return d.messages[len(d.messages)-1], true
}

// CodeFromLink extracts the one-time code from a confirmation or reset link.
func CodeFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	code := u.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AuthFixture wires the auth flows against an in-memory database.
type AuthFixture struct {
	DB       *sqlx.DB
	Repo     *repository.Repository
	Hasher   *security.Hasher
	Tokens   *security.TokenIssuer
	Accounts *account.Service
	Auth     *auth.Service
	Mail     *RecordingDispatcher
	Clock    *Clock
}

// NewAuthFixture builds the auth service with a one hour code lifetime and
// a five hour token lifetime.
func NewAuthFixture(t *testing.T) *AuthFixture {
	t.Helper()
	db, repo := NewTestDB(t)

	hasher, err := security.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	clock := NewClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	tokens, err := security.NewTokenIssuer(TestSecretKey, "HS256", 5*time.Hour, security.WithTokenClock(clock.Now))
	require.NoError(t, err)

	accounts := account.NewService(repo, hasher, time.Hour, account.WithClock(clock.Now))
	mail := &RecordingDispatcher{}

	return &AuthFixture{
		DB:       db,
		Repo:     repo,
		Hasher:   hasher,
		Tokens:   tokens,
		Accounts: accounts,
		Auth:     auth.NewService(repo, accounts, hasher, tokens, mail, TestBaseURL),
		Mail:     mail,
		Clock:    clock,
	}
}

// LastCode returns the code of the most recently dispatched mail.
func (f *AuthFixture) LastCode(t *testing.T) string {
	t.Helper()
	msg, ok := f.Mail.Last()
	require.True(t, ok, "expected a dispatched mail")
	return CodeFromLink(t, msg.Link)
}

// RegisterConfirmed creates an active user through the public flows.
func (f *AuthFixture) RegisterConfirmed(t *testing.T, emailAddr, password string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.Auth.Register(ctx, f.DB, emailAddr, password)
	require.NoError(t, err)
	require.NoError(t, f.Auth.Confirm(ctx, f.DB, emailAddr, f.LastCode(t)))

	user, err = f.Repo.Users.Get(ctx, f.DB, user.ID)
	require.NoError(t, err)
	return user
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
