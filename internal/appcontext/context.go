// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context and context helpers
// for request-scoped values.
package appcontext

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/go-account-service/internal/ctxkeys"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"github.com/labstack/echo/v4"
)

// ErrNoSession is returned when a handler runs outside the session
// middleware.
var ErrNoSession = errors.New("request has no database session")

// Context is a custom Echo context with the request's database session and
// the authenticated user.
type Context struct {
	echo.Context
	Session *database.Session
	User    *models.User // nil if not authenticated
}

// From returns the custom context, or nil if c was not wrapped by the
// session middleware.
func From(c echo.Context) *Context {
	cc, _ := c.(*Context)
	return cc
}

// GetUser returns the authenticated user, or nil if not authenticated.
func (c *Context) GetUser() *models.User {
	return c.User
}

// IsAuthenticated returns true if the user is authenticated.
func (c *Context) IsAuthenticated() bool {
	return c.User != nil
}

// SetUser stores the user on the Echo context and the request context.
func (c *Context) SetUser(user *models.User) {
	c.User = user
	c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
}

func WithSession(ctx context.Context, s *database.Session) context.Context {
	return context.WithValue(ctx, ctxkeys.Session{}, s)
}

// SessionFrom returns the session stored in ctx, or nil.
func SessionFrom(ctx context.Context) *database.Session {
	if s, ok := ctx.Value(ctxkeys.Session{}).(*database.Session); ok {
		return s
	}
	return nil
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxkeys.User{}, user)
}

// UserFrom returns the authenticated user from ctx, or nil.
func UserFrom(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}
