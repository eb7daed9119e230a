// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/oliverandrich/go-account-service/internal/handlers"
	"codeberg.org/oliverandrich/go-account-service/internal/middleware"
	"github.com/labstack/echo/v4"
)

func setupRoutes(e *echo.Echo, services *Services) {
	h := handlers.New(services.Auth)

	// Health check - public
	e.GET("/health", h.Health)

	v1 := e.Group("/v1")

	// Auth routes - public
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/confirm", h.Confirm)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/forgot_password", h.ForgotPassword)
	authGroup.POST("/check_reset_code", h.CheckResetCode)
	authGroup.POST("/reset_password", h.ResetPassword)

	// User routes - bearer token required
	users := v1.Group("/users", middleware.RequireUser(services.Auth))
	users.GET("", h.ListUsers)
	users.POST("/resend_confirmation", h.ResendConfirmation)
}
