// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperr defines the error kinds surfaced by the account service
// and their HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for callers and the HTTP boundary.
type Kind int

const (
	BadRequest Kind = iota + 1
	AuthenticationFailed
	InvalidToken
	NotFound
	Conflict
	UnprocessableInput
)

var kindNames = map[Kind]string{
	BadRequest:           "bad_request",
	AuthenticationFailed: "authentication_failed",
	InvalidToken:         "invalid_token",
	NotFound:             "not_found",
	Conflict:             "conflict",
	UnprocessableInput:   "unprocessable_input",
}

var defaultMessages = map[Kind]string{
	BadRequest:           "Bad request, invalid input",
	AuthenticationFailed: "Incorrect authentication credentials",
	InvalidToken:         "Could not validate credentials",
	NotFound:             "Not found",
	Conflict:             "Item already exists",
	UnprocessableInput:   "Invalid input",
}

var statuses = map[Kind]int{
	BadRequest:           http.StatusBadRequest,
	AuthenticationFailed: http.StatusUnauthorized,
	InvalidToken:         http.StatusUnauthorized,
	NotFound:             http.StatusNotFound,
	Conflict:             http.StatusConflict,
	UnprocessableInput:   http.StatusUnprocessableEntity,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if status, ok := statuses[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is checks. They match any *Error of the same kind.
var (
	ErrBadRequest           = &Error{Kind: BadRequest}
	ErrAuthenticationFailed = &Error{Kind: AuthenticationFailed}
	ErrInvalidToken         = &Error{Kind: InvalidToken}
	ErrNotFound             = &Error{Kind: NotFound}
	ErrConflict             = &Error{Kind: Conflict}
	ErrUnprocessableInput   = &Error{Kind: UnprocessableInput}
)

// Error is a classified error with a user-facing message.
type Error struct {
	Err     error
	Message string
	Kind    Kind
}

// New creates an error of the given kind. An empty message falls back to the
// kind's default wording.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return defaultMessages[e.Kind]
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
