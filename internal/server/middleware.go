// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	appmiddleware "codeberg.org/oliverandrich/go-account-service/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vinovest/sqlx"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, db *sqlx.DB) {
	e.Pre(appmiddleware.StripTrailingSlash())

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.RequestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", max(cfg.Server.MaxBodySize, 1))))
	e.Use(appmiddleware.Locale())
	e.Use(appmiddleware.DBSession(db))
}
