// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultResetCodeBytes is the entropy of generated reset codes.
const DefaultResetCodeBytes = 24

// ResetCode is a freshly generated one-time code. Code is handed to the user
// once and never stored; only Hash is persisted.
type ResetCode struct {
	Code string
	Hash string
}

// GenerateResetCode creates a URL-safe random code of nbytes entropy and its hash.
func (h *Hasher) GenerateResetCode(nbytes int) (ResetCode, error) {
	if nbytes <= 0 {
		nbytes = DefaultResetCodeBytes
	}

	buf := make([]byte, nbytes)
	if _, err := rand.Read(buf); err != nil {
		return ResetCode{}, fmt.Errorf("failed to read random bytes: %w", err)
	}

	code := base64.RawURLEncoding.EncodeToString(buf)
	hash, err := h.Hash(code)
	if err != nil {
		return ResetCode{}, err
	}

	return ResetCode{Code: code, Hash: hash}, nil
}
