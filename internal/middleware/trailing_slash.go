// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// StripTrailingSlash redirects requests with trailing slashes to the
// canonical URL without. 308 keeps the method and body of POST requests.
func StripTrailingSlash() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := c.Request().URL
			if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
				target := strings.TrimSuffix(u.Path, "/")
				if u.RawQuery != "" {
					target += "?" + u.RawQuery
				}
				return c.Redirect(http.StatusPermanentRedirect, target)
			}
			return next(c)
		}
	}
}
