// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware provides the Echo middleware for request-scoped
// database sessions, bearer authentication, locale detection and logging.
package middleware

import (
	"log/slog"

	"codeberg.org/oliverandrich/go-account-service/internal/appcontext"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"github.com/labstack/echo/v4"
	"github.com/vinovest/sqlx"
)

// DBSession checks out one database session per request and wraps the
// Echo context in an appcontext.Context carrying it. The session is closed
// when the handler chain returns, on every path.
func DBSession(db *sqlx.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			session, err := database.NewSession(req.Context(), db)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := session.Close(); closeErr != nil {
					slog.Error("failed to close database session", "error", closeErr)
				}
			}()

			c.SetRequest(req.WithContext(appcontext.WithSession(req.Context(), session)))
			return next(&appcontext.Context{Context: c, Session: session})
		}
	}
}
