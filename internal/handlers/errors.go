// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"github.com/labstack/echo/v4"
)

const internalErrorDetail = "Internal server error"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ErrorHandler is the Echo HTTP error handler. Classified errors map to
// their status code, Echo errors pass through and everything else becomes
// a 500 with a generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := errorStatus(err, c)

	if status == http.StatusInternalServerError {
		slog.Error("request_failed",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"error", err,
		)
		detail = internalErrorDetail
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}

func errorStatus(err error, c echo.Context) (int, string) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.InvalidToken {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		return appErr.Kind.Status(), appErr.Error()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}

	return http.StatusInternalServerError, internalErrorDetail
}
