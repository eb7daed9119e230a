// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package security_test

import (
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/services/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := security.NewTokenIssuer("", "HS256", time.Minute)
	assert.ErrorIs(t, err, security.ErrEmptySecret)

	_, err = security.NewTokenIssuer(testSecret, "XX999", time.Minute)
	assert.Error(t, err)

	_, err = security.NewTokenIssuer(testSecret, "RS256", time.Minute)
	assert.Error(t, err)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			issuer, err := security.NewTokenIssuer(testSecret, alg, time.Hour)
			require.NoError(t, err)

			token, err := issuer.Issue("a@x.com", 0)
			require.NoError(t, err)

			subject, err := issuer.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", subject)
		})
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	issuer, err := security.NewTokenIssuer(testSecret, "HS256", time.Minute, security.WithTokenClock(clock))
	require.NoError(t, err)

	token, err := issuer.Issue("a@x.com", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenIssuer_FailuresAreUniform(t *testing.T) {
	issuer, err := security.NewTokenIssuer(testSecret, "HS256", time.Hour)
	require.NoError(t, err)

	otherSecret, err := security.NewTokenIssuer("another-secret", "HS256", time.Hour)
	require.NoError(t, err)
	otherAlg, err := security.NewTokenIssuer(testSecret, "HS512", time.Hour)
	require.NoError(t, err)

	wrongSecret, err := otherSecret.Issue("a@x.com", 0)
	require.NoError(t, err)
	wrongAlg, err := otherAlg.Issue("a@x.com", 0)
	require.NoError(t, err)
	noSubject, err := issuer.Issue("", 0)
	require.NoError(t, err)

	tokens := map[string]string{
		"malformed":    "not.a.token",
		"empty":        "",
		"wrong secret": wrongSecret,
		"wrong alg":    wrongAlg,
		"no subject":   noSubject,
	}

	var messages []string
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			require.ErrorIs(t, err, apperr.ErrInvalidToken)
			messages = append(messages, err.Error())
		})
	}

	for _, msg := range messages {
		assert.Equal(t, "Could not validate credentials", msg)
	}
}
