// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Student represents a registered student account.
type Student struct {
	ID             ulid.ULID `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	StudyProgramID *int64    `json:"study_program_id,omitempty"`
	Institution    string    `json:"institution,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Registration is a candidate account submitted for registration.
type Registration struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	StudyProgramID *int64 `json:"study_program_id,omitempty"`
	Institution    string `json:"institution,omitempty"`
}

// Credentials is an email and plaintext password pair presented at login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewStudent creates a Student from a validated registration and a password hash.
// The plaintext password on reg is not copied.
func NewStudent(reg Registration, passwordHash string) (*Student, error) {
	if err := ValidateEmail(reg.Email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, oops.Code(CodeInvalidHash).Errorf("password hash cannot be empty")
	}
	if passwordHash == reg.Password {
		return nil, oops.Code(CodeInvalidHash).Errorf("password hash must not equal the plaintext password")
	}

	now := time.Now().UTC()
	return &Student{
		ID:             ulid.Make(),
		Email:          NormalizeEmail(reg.Email),
		PasswordHash:   passwordHash,
		StudyProgramID: reg.StudyProgramID,
		Institution:    strings.TrimSpace(reg.Institution),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NormalizeEmail trims surrounding whitespace and lowercases email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StudentRepository manages student persistence.
// Lookups return (nil, nil) when no student matches; errors are reserved for failures.
type StudentRepository interface {
	// Create stores a new student and returns the stored record.
	Create(ctx context.Context, student *Student) (*Student, error)

	// FindByEmailWithPassword retrieves a student including the password hash.
	FindByEmailWithPassword(ctx context.Context, email string) (*Student, error)

	// FindByEmail retrieves a student without the password hash.
	FindByEmail(ctx context.Context, email string) (*Student, error)
}

// Notifier sends outbound messages to students.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}
