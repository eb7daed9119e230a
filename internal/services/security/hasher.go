// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package security hashes passwords and one-time codes and issues bearer tokens.
package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptySecret = errors.New("secret must not be empty")

const dummySecret = "dummy-password-for-timing"

// Hasher hashes and verifies secrets with bcrypt.
type Hasher struct {
	dummyHash []byte
	cost      int
}

// NewHasher creates a hasher for the given bcrypt cost. The dummy hash used by
// DummyVerify is computed with the same cost so both paths take equally long.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte(dummySecret), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dummy hash: %w", err)
	}

	return &Hasher{cost: cost, dummyHash: dummyHash}, nil
}

// Hash returns a salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether secret matches hash. Malformed hashes never match.
func (h *Hasher) Verify(secret, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(secret))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// DummyVerify burns the same amount of time as a real Verify. Call it on
// every path where the record to verify against does not exist.
func (h *Hasher) DummyVerify(secret string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(secret))
}
