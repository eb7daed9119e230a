// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db, repo := testutil.NewTestDB(t)

	user := testutil.NewTestUser(t, db, repo, "  Alice@Example.COM ", "hash", false)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.IsActive)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	testutil.NewTestUser(t, db, repo, "alice@example.com", "hash", false)

	_, err := repo.Users.Create(context.Background(), db, record.Values{
		repository.UserEmail:        "ALICE@example.com",
		repository.UserPasswordHash: "hash",
	})

	assert.Error(t, err)
}

func TestUserStore_Timestamps(t *testing.T) {
	db, _ := testutil.NewTestDB(t)
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	repo := repository.New(record.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	user := testutil.NewTestUser(t, db, repo, "alice@example.com", "hash", false)
	assert.True(t, now.Equal(user.CreatedAt))

	now = now.Add(time.Hour)
	_, _, _, err := repo.Users.Update(ctx, db, user, record.Values{repository.UserIsActive: true})
	require.NoError(t, err)

	reloaded, err := repo.Users.Get(ctx, db, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)
	assert.True(t, now.Add(-time.Hour).Equal(reloaded.CreatedAt))
	assert.True(t, now.Equal(reloaded.UpdatedAt))
}

func TestFindUserByEmail(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	created := testutil.NewTestUser(t, db, repo, "alice@example.com", "hash", true)

	found, err := repo.FindUserByEmail(ctx, db, " ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.IsActive)

	missing, err := repo.FindUserByEmail(ctx, db, "bob@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetUserByEmail(ctx, db, "bob@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserNullableColumnsRoundTrip(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, repo, "alice@example.com", "hash", false)
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _, _, err := repo.Users.Update(ctx, db, user, record.Values{
		repository.UserResetCodeHash:       "code-hash",
		repository.UserResetCodeExpiration: expires,
		repository.UserLastLoginIP:         "192.0.2.1",
	})
	require.NoError(t, err)

	reloaded, err := repo.Users.Get(ctx, db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ResetCodeHash)
	require.NotNil(t, reloaded.ResetCodeExpiration)
	require.NotNil(t, reloaded.LastLoginIP)
	assert.Equal(t, "code-hash", *reloaded.ResetCodeHash)
	assert.True(t, expires.Equal(*reloaded.ResetCodeExpiration))
	assert.Equal(t, "192.0.2.1", *reloaded.LastLoginIP)
	assert.Nil(t, reloaded.ConfirmedAt)

	_, _, _, err = repo.Users.Update(ctx, db, reloaded, record.Values{
		repository.UserResetCodeHash:       nil,
		repository.UserResetCodeExpiration: nil,
	})
	require.NoError(t, err)

	cleared, err := repo.Users.Get(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.ResetCodeHash)
	assert.Nil(t, cleared.ResetCodeExpiration)
}

func TestListUsers(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestUser(t, db, repo, "carol@example.com", "hash", true)
	testutil.NewTestUser(t, db, repo, "alice@example.com", "hash", false)
	testutil.NewTestUser(t, db, repo, "bob@example.com", "hash", true)

	page, err := repo.Users.GetAll(ctx, db, record.ListOptions{
		Sort:    "email:desc",
		Filters: []*record.Predicate{record.Where("is_active = ?", true)},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "carol@example.com", page.Items[0].Email)
	assert.Equal(t, "bob@example.com", page.Items[1].Email)
}
