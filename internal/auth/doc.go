// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package auth registers students, authenticates credentials and validates
// stateless session tokens.
//
// # Components
//
//   - Validator - email shape, password presence and minimum length, checked in that order
//   - PasswordHasher - argon2id hashing with legacy bcrypt verification
//   - TokenIssuer - HS256 JWTs carrying the student email as subject
//   - CookieEncoder - the "auth" session cookie and its fixed attributes
//
// # Services
//
// Service composes the components around Register, Authenticate and Validate.
// Every operation returns a Result instead of an error; Result.Message is safe to
// show to callers and Result.Err is for logs only.
//
// Authenticate never reveals whether an email is registered, and Validate never
// reveals why a token was rejected.
//
// Persistence is supplied through StudentRepository, created once at startup and
// passed to NewService.
package auth
