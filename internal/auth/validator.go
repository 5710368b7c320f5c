// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// DefaultMinPasswordLength is the minimum password length when none is configured.
const DefaultMinPasswordLength = 8

// emailRegex matches local@domain with a non-empty local part and
// at least one dot-separated label after the first domain label.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)

// ValidateEmail checks that email has a local@domain shape.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return oops.Code(CodeInvalidEmail).Public(MsgInvalidEmail).Errorf("email is not well formed")
	}
	return nil
}

// ValidatePasswordPresent checks that a password was supplied.
func ValidatePasswordPresent(password string) error {
	if password == "" {
		return oops.Code(CodeMissingPassword).Public(MsgMissingPassword).Errorf("password cannot be empty")
	}
	return nil
}

// ValidatePasswordLength checks that password has at least minLength characters.
func ValidatePasswordLength(password string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return oops.Code(CodePasswordTooShort).
			Public(MsgPasswordTooShort).
			With("min", minLength).
			Errorf("password must be at least %d characters", minLength)
	}
	return nil
}

// Validator applies the registration rules in a fixed order:
// email, password presence, password length. It stops at the first failure.
type Validator struct {
	MinPasswordLength int
}

// NewValidator creates a Validator. A non-positive minLength selects DefaultMinPasswordLength.
func NewValidator(minLength int) Validator {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return Validator{MinPasswordLength: minLength}
}

// Validate checks a registration candidate.
func (v Validator) Validate(reg Registration) error {
	if err := ValidateEmail(reg.Email); err != nil {
		return err
	}
	if err := ValidatePasswordPresent(reg.Password); err != nil {
		return err
	}
	minLength := v.MinPasswordLength
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return ValidatePasswordLength(reg.Password, minLength)
}
