// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"
)

const (
	maxEmailLength    = 254
	maxPasswordLength = 72 // bcrypt ignores everything beyond
	maxCodeLength     = 128
)

func emailRules(field *string) *validation.FieldRules {
	return validation.Field(field, validation.Required, validation.Length(3, maxEmailLength), is.Email)
}

func passwordRules(field *string) *validation.FieldRules {
	return validation.Field(field, validation.Required, validation.Length(1, maxPasswordLength))
}

func codeRules(field *string) *validation.FieldRules {
	return validation.Field(field, validation.Required, validation.Length(1, maxCodeLength))
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		emailRules(&r.Email),
		passwordRules(&r.Password),
	)
}

// CodeRequest carries an email address and a one-time code.
type CodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r CodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		emailRules(&r.Email),
		codeRules(&r.Code),
	)
}

// LoginRequest accepts the OAuth2 password form as well as JSON.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		emailRules(&r.Username),
		passwordRules(&r.Password),
	)
}

// EmailRequest is the request body for forgot password.
type EmailRequest struct {
	Email string `json:"email"`
}

func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		emailRules(&r.Email),
	)
}

// ResetPasswordRequest is the request body for resetting a password.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		emailRules(&r.Email),
		codeRules(&r.Code),
		passwordRules(&r.Password),
	)
}

// Register creates an unconfirmed account and mails the confirmation link.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), q, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Confirm activates an account.
func (h *Handlers) Confirm(c echo.Context) error {
	var req CodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	if err := h.auth.Confirm(c.Request().Context(), q, req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	token, err := h.auth.Login(c.Request().Context(), q, req.Username, req.Password, c.RealIP())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}

// ForgotPassword mails a reset link. The response never reveals whether
// the address is registered.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), q, req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}

// CheckResetCode validates a reset code without consuming it.
func (h *Handlers) CheckResetCode(c echo.Context) error {
	var req CodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	if err := h.auth.CheckResetCode(c.Request().Context(), q, req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}

// ResetPassword sets a new password and returns a bearer token.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	token, err := h.auth.ResetPassword(c.Request().Context(), q, req.Email, req.Code, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}
