// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"strings"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/appcontext"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"github.com/labstack/echo/v4"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, q record.Querier, token string) (*models.User, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// authenticated user in the context. It must run after DBSession.
func RequireUser(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := appcontext.From(c)
			if cc == nil {
				return echo.ErrInternalServerError.WithInternal(appcontext.ErrNoSession)
			}

			token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.ErrInvalidToken
			}

			user, err := authn.Authenticate(c.Request().Context(), cc.Session, token)
			if err != nil {
				return err
			}

			cc.SetUser(user)
			return next(cc)
		}
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
