// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package security

import (
	"fmt"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HMAC bearer tokens carrying a subject.
type TokenIssuer struct {
	method     jwt.SigningMethod
	now        func() time.Time
	secret     []byte
	defaultTTL time.Duration
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTokenClock replaces the clock used for issuing and expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

func NewTokenIssuer(secret, algorithm string, defaultTTL time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC algorithm", algorithm)
	}

	t := &TokenIssuer{
		method:     method,
		now:        time.Now,
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue creates a signed token for subject. A non-positive ttl uses the
// issuer's default lifetime.
func (t *TokenIssuer) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = t.defaultTTL
	}

	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
// Every failure is reported as the same apperr.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", apperr.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", apperr.ErrInvalidToken
	}
	return claims.Subject, nil
}
