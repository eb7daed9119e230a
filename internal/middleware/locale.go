// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"github.com/labstack/echo/v4"
)

// Locale detects the user's preferred language from the Accept-Language
// header and sets it in the request context. Mails are rendered with it.
func Locale() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			lang := i18n.MatchLanguage(req.Header.Get("Accept-Language"))
			c.SetRequest(req.WithContext(i18n.WithLocale(req.Context(), lang)))
			return next(c)
		}
	}
}
