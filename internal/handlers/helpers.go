// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/appcontext"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"github.com/labstack/echo/v4"
)

type validatable interface {
	Validate() error
}

// bindAndValidate binds the request body and runs its structural checks.
// Failed checks are reported as BadRequest with the validation message.
func bindAndValidate(c echo.Context, req validatable) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return apperr.Wrap(apperr.BadRequest, err, err.Error())
	}
	return nil
}

// querier returns the request's database session.
func querier(c echo.Context) (record.Querier, error) {
	cc := appcontext.From(c)
	if cc == nil || cc.Session == nil {
		return nil, echo.ErrInternalServerError.WithInternal(appcontext.ErrNoSession)
	}
	return cc.Session, nil
}

// emptyResponse renders as {}.
type emptyResponse struct{}
