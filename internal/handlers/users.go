// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"
)

// MaxPageSize caps the limit query parameter of listings.
const MaxPageSize = 1000

// ListUsersQuery holds the query parameters of the user listing.
type ListUsersQuery struct {
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	IsActive *bool  `json:"is_active"`
}

func (q ListUsersQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Offset, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(MaxPageSize)),
		validation.Field(&q.Sort, validation.Length(0, 200)),
	)
}

// ListOptions converts the query into persistence options.
func (q ListUsersQuery) ListOptions() record.ListOptions {
	opts := record.ListOptions{
		Sort:   q.Sort,
		Offset: q.Offset,
		Limit:  q.Limit,
	}
	var activeFilter *record.Predicate
	if q.IsActive != nil {
		activeFilter = record.Where(repository.UserIsActive+" = ?", *q.IsActive)
	}
	opts.Filters = append(opts.Filters, activeFilter)
	return opts
}

func bindListUsersQuery(c echo.Context) (ListUsersQuery, error) {
	var query ListUsersQuery
	var isActive bool
	hasActive := c.QueryParam("is_active") != ""

	binder := echo.QueryParamsBinder(c).
		Int("offset", &query.Offset).
		Int("limit", &query.Limit).
		String("sort", &query.Sort)
	if hasActive {
		binder = binder.Bool("is_active", &isActive)
	}
	if err := binder.BindError(); err != nil {
		return query, apperr.Wrap(apperr.BadRequest, err, "Invalid query parameters")
	}
	if hasActive {
		query.IsActive = &isActive
	}

	if err := query.Validate(); err != nil {
		return query, apperr.Wrap(apperr.BadRequest, err, err.Error())
	}
	return query, nil
}

// ListUsers returns one page of users.
func (h *Handlers) ListUsers(c echo.Context) error {
	query, err := bindListUsersQuery(c)
	if err != nil {
		return err
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	page, err := h.auth.ListUsers(c.Request().Context(), q, query.ListOptions())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// ResendConfirmation issues a fresh confirmation code for the address in
// the email query parameter.
func (h *Handlers) ResendConfirmation(c echo.Context) error {
	emailAddr := c.QueryParam("email")
	if err := validation.Validate(emailAddr, validation.Required, is.Email); err != nil {
		return apperr.Wrap(apperr.BadRequest, err, "email: "+err.Error()+".")
	}
	q, err := querier(c)
	if err != nil {
		return err
	}

	if err := h.auth.ResendConfirmation(c.Request().Context(), q, emailAddr); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyResponse{})
}
