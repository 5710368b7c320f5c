// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Caller-facing messages. They are part of the external contract.
const (
	MsgInvalidEmail          = "invalid email"
	MsgMissingPassword       = "no password given"
	MsgPasswordTooShort      = "password has too few characters"
	MsgAuthenticationFailed  = "authentication failed"
	MsgAuthenticationSuccess = "authentication successful"
	MsgTokenInvalid          = "unable to find student or the token was corrupt"
	MsgStudentFound          = "student found"
	MsgStudentRegistered     = "student registered"
	MsgRegistrationFailed    = "unable to register student"
	MsgEmailTaken            = "email already registered"
	MsgUnknownStudyProgram   = "unknown study program"
)

// Kind classifies a failed operation.
type Kind string

// Error kinds.
const (
	KindNone                 Kind = ""
	KindInvalidEmail         Kind = "InvalidEmail"
	KindMissingPassword      Kind = "MissingPassword"
	KindPasswordTooShort     Kind = "PasswordTooShort"
	KindAuthenticationFailed Kind = "AuthenticationFailed"
	KindTokenInvalid         Kind = "TokenInvalid"
	KindRepositoryFailure    Kind = "RepositoryFailure"
	KindInternal             Kind = "Internal"
)

// Error codes attached to oops errors produced by this package.
const (
	CodeInvalidEmail         = "AUTH_INVALID_EMAIL"
	CodeMissingPassword      = "AUTH_MISSING_PASSWORD"
	CodePasswordTooShort     = "AUTH_PASSWORD_TOO_SHORT"
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeTokenInvalid         = "AUTH_TOKEN_INVALID"
	CodeEmailTaken           = "STUDENT_EMAIL_TAKEN"
	CodeRegisterFailed       = "AUTH_REGISTER_FAILED"
	CodeAuthenticateFailed   = "AUTH_AUTHENTICATE_FAILED"
	CodeValidateFailed       = "AUTH_VALIDATE_FAILED"
	CodeInvalidHash          = "AUTH_INVALID_HASH"
	CodeTokenIssueFailed     = "AUTH_TOKEN_ISSUE_FAILED"
	CodeMissingDependency    = "AUTH_MISSING_DEPENDENCY"
	CodeHashCapacityCanceled = "AUTH_HASH_CANCELED"
)

// ErrTokenInvalid is wrapped by every token verification failure.
// Bad signatures, malformed input and expiry are indistinguishable to callers.
var ErrTokenInvalid = errors.New("invalid session token")

// ErrEmailTaken is wrapped by repositories when the unique email index rejects an insert.
var ErrEmailTaken = errors.New("email already registered")

// tokenInvalid builds the error returned for any rejected token.
func tokenInvalid(err error) error {
	b := oops.Code(CodeTokenInvalid).Public(MsgTokenInvalid)
	if err != nil {
		b = b.With("cause", err.Error())
	}
	return b.Wrap(ErrTokenInvalid)
}

// kindOf maps a validation error code to its Kind.
func kindOf(err error) Kind {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	switch oopsErr.Code() {
	case CodeInvalidEmail:
		return KindInvalidEmail
	case CodeMissingPassword:
		return KindMissingPassword
	case CodePasswordTooShort:
		return KindPasswordTooShort
	default:
		return KindInternal
	}
}
