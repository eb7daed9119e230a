// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// Session is the context key for the request-scoped database session.
type Session struct{}

// User is the context key for the authenticated user.
type User struct{}
