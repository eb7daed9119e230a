// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
)

// Repository bundles the typed stores of all persisted models. It holds no
// connection; every call takes the request's record.Querier.
type Repository struct {
	Users *record.Store[models.User]
	Roles *record.Store[models.Role]
}

// New creates a Repository. Options apply to every store.
func New(opts ...record.StoreOption) *Repository {
	return &Repository{
		Users: record.NewStore(UserSchema(), opts...),
		Roles: record.NewStore(RoleSchema(), opts...),
	}
}
