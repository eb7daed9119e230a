// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/security"
	"codeberg.org/oliverandrich/go-account-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db      *sqlx.DB
	repo    *repository.Repository
	hasher  *security.Hasher
	service *account.Service
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, repo := testutil.NewTestDB(t)
	hasher, err := security.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		db:     db,
		repo:   repo,
		hasher: hasher,
		now:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.service = account.NewService(repo, hasher, time.Hour, account.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) register(t *testing.T, email string) (*models.User, security.ResetCode) {
	t.Helper()
	user, code, err := f.service.Register(context.Background(), f.db, email, "Abcd123!")
	require.NoError(t, err)
	return user, code
}

func (f *fixture) reload(t *testing.T, user *models.User) *models.User {
	t.Helper()
	reloaded, err := f.repo.Users.Get(context.Background(), f.db, user.ID)
	require.NoError(t, err)
	return reloaded
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user, code := f.register(t, " A@X.com")

	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, models.StateUnconfirmed, user.State())
	assert.Nil(t, user.ConfirmedAt)
	assert.True(t, f.hasher.Verify("Abcd123!", user.PasswordHash))
	assert.NotEmpty(t, code.Code)

	stored := f.reload(t, user)
	require.NotNil(t, stored.ResetCodeHash)
	require.NotNil(t, stored.ResetCodeExpiration)
	assert.Equal(t, code.Hash, *stored.ResetCodeHash)
	assert.NotEqual(t, code.Code, *stored.ResetCodeHash)
	assert.NotEqual(t, code.Code, stored.PasswordHash)
	assert.True(t, f.now.Add(time.Hour).Equal(*stored.ResetCodeExpiration))
	assert.Equal(t, models.ResetCodePending, stored.ResetCodeState(f.now))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com")

	_, _, err := f.service.Register(context.Background(), f.db, "A@x.com", "Abcd123!")

	assert.ErrorIs(t, err, account.ErrEmailTaken)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

// missedLookup answers every single-row query with no rows, as if a
// concurrent insert had not yet been visible to the lookup.
type missedLookup struct {
	record.Querier
}

func (m missedLookup) QueryRowxContext(ctx context.Context, _ string, _ ...any) *sqlx.Row {
	return m.Querier.QueryRowxContext(ctx, "SELECT * FROM users WHERE 1 = 0")
}

func TestRegister_DuplicateEmailAfterLookup(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com")

	_, _, err := f.service.Register(context.Background(), missedLookup{Querier: f.db}, "a@x.com", "Abcd123!")

	assert.ErrorIs(t, err, account.ErrEmailTaken)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestVerifyResetCode(t *testing.T) {
	f := newFixture(t)
	user, code := f.register(t, "a@x.com")

	assert.True(t, f.service.VerifyResetCode(user, code.Code))
	assert.False(t, f.service.VerifyResetCode(user, code.Code+"x"))
	assert.False(t, f.service.VerifyResetCode(user, ""))
}

func TestVerifyResetCode_Expired(t *testing.T) {
	f := newFixture(t)
	user, code := f.register(t, "a@x.com")

	f.now = f.now.Add(time.Hour)

	assert.False(t, f.service.VerifyResetCode(user, code.Code))
	assert.Equal(t, models.ResetCodeExpired, user.ResetCodeState(f.now))
}

func TestVerifyResetCode_NoCode(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.db, f.repo, "a@x.com", "hash", true)

	assert.False(t, f.service.VerifyResetCode(user, "anything"))
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	user, _ := f.register(t, "a@x.com")

	require.NoError(t, f.service.Confirm(context.Background(), f.db, user))

	stored := f.reload(t, user)
	assert.Equal(t, models.StateActive, stored.State())
	require.NotNil(t, stored.ConfirmedAt)
	assert.True(t, f.now.Equal(*stored.ConfirmedAt))
	assert.Nil(t, stored.ResetCodeHash)
	assert.Nil(t, stored.ResetCodeExpiration)
	assert.Equal(t, models.ResetCodeNone, stored.ResetCodeState(f.now))
}

func TestIssueResetCode_InvalidatesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, first := f.register(t, "a@x.com")

	second, err := f.service.GenerateResetCode()
	require.NoError(t, err)
	require.NoError(t, f.service.IssueResetCode(ctx, f.db, user, second))

	stored := f.reload(t, user)
	assert.False(t, f.service.VerifyResetCode(stored, first.Code))
	assert.True(t, f.service.VerifyResetCode(stored, second.Code))
}

func TestIssueResetCode_ExtendsExpiration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _ := f.register(t, "a@x.com")

	f.now = f.now.Add(2 * time.Hour)
	code, err := f.service.GenerateResetCode()
	require.NoError(t, err)
	require.NoError(t, f.service.IssueResetCode(ctx, f.db, user, code))

	assert.True(t, f.service.VerifyResetCode(user, code.Code))
	assert.True(t, f.now.Add(time.Hour).Equal(*user.ResetCodeExpiration))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	user, code := f.register(t, "a@x.com")

	require.NoError(t, f.service.ChangePassword(context.Background(), f.db, user, "Efgh456?"))

	stored := f.reload(t, user)
	assert.True(t, f.hasher.Verify("Efgh456?", stored.PasswordHash))
	assert.False(t, f.hasher.Verify("Abcd123!", stored.PasswordHash))
	assert.Nil(t, stored.ResetCodeHash)
	assert.False(t, f.service.VerifyResetCode(stored, code.Code))
}

func TestRecordLogin(t *testing.T) {
	f := newFixture(t)
	user, _ := f.register(t, "a@x.com")

	require.NoError(t, f.service.RecordLogin(context.Background(), f.db, user, "192.0.2.10"))

	stored := f.reload(t, user)
	require.NotNil(t, stored.LastLoginAt)
	require.NotNil(t, stored.LastLoginIP)
	assert.True(t, f.now.Equal(*stored.LastLoginAt))
	assert.Equal(t, "192.0.2.10", *stored.LastLoginIP)
}
