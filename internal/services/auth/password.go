// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" {
			commonPasswords[password] = struct{}{}
		}
	}
}

// PasswordValidator checks the password policy. Letter classes are ASCII:
// uppercase is A-Z, lowercase is a-z, and any rune that is not an ASCII
// letter, a digit or whitespace counts as special.
type PasswordValidator struct {
	MinLength            int
	CheckCommonPasswords bool
}

// DefaultPasswordValidator requires eight characters mixing upper and lower
// case letters, digits and special characters.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength:            8,
		CheckCommonPasswords: true,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError carries every failed rule. Its message is the
// first one.
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// Messages returns all error messages
func (e *PasswordValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// ValidationResult holds all validation errors
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

type charClasses struct {
	upper, lower, digit, special bool
}

func classify(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case !unicode.IsSpace(r):
			c.special = true
		}
	}
	return c
}

// Validate checks a password against every rule and collects the failures.
func (v *PasswordValidator) Validate(password string) ValidationResult {
	var errors []ValidationError
	fail := func(code, message string) {
		errors = append(errors, ValidationError{Code: code, Message: message})
	}

	if utf8.RuneCountInString(password) < v.MinLength {
		fail("min_length", fmt.Sprintf("Password must be at least %d characters long.", v.MinLength))
	}

	classes := classify(password)
	if !classes.upper {
		fail("no_uppercase", "Password must contain at least one uppercase letter.")
	}
	if !classes.lower {
		fail("no_lowercase", "Password must contain at least one lowercase letter.")
	}
	if !classes.digit {
		fail("no_digit", "Password must contain at least one digit.")
	}
	if !classes.special {
		fail("no_special", "Password must contain at least one special character.")
	}

	if v.CheckCommonPasswords && isCommonPassword(password) {
		fail("common_password", "This password is too common. Please choose a more secure password.")
	}

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func isCommonPassword(password string) bool {
	_, exists := commonPasswords[strings.ToLower(password)]
	return exists
}
