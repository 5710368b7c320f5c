// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package postgres provides PostgreSQL implementations of the auth repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/studyreview/studyreview/internal/auth"
)

// poolIface is the subset of *pgxpool.Pool used by the repository.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const studentColumns = `id, email, password_hash, study_program_id, institution, created_at, updated_at`

// StudentRepository implements auth.StudentRepository using PostgreSQL.
type StudentRepository struct {
	pool poolIface
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool poolIface) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Create stores a new student and returns the row as written.
// A duplicate email (case-insensitive) wraps auth.ErrEmailTaken.
func (r *StudentRepository) Create(ctx context.Context, student *auth.Student) (*auth.Student, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+studentColumns,
		student.ID.String(),
		student.Email,
		student.PasswordHash,
		student.StudyProgramID,
		student.Institution,
		student.CreatedAt,
		student.UpdatedAt,
	)

	stored, err := scanStudent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return nil, oops.Code(auth.CodeEmailTaken).
					Public(auth.MsgEmailTaken).
					With("email", student.Email).
					Wrap(auth.ErrEmailTaken)
			case pgerrcode.ForeignKeyViolation:
				return nil, oops.Code("STUDENT_UNKNOWN_STUDY_PROGRAM").
					Public(auth.MsgUnknownStudyProgram).
					With("study_program_id", student.StudyProgramID).
					Wrap(err)
			}
		}
		return nil, oops.Code("STUDENT_CREATE_FAILED").
			With("operation", "insert student").
			With("email", student.Email).
			Wrap(err)
	}
	return stored, nil
}

// FindByEmailWithPassword retrieves a student including the password hash.
// Returns (nil, nil) when no student has the email.
func (r *StudentRepository) FindByEmailWithPassword(ctx context.Context, email string) (*auth.Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE LOWER(email) = LOWER($1)
	`, email)

	return r.find(row, email, "find student with password")
}

// FindByEmail retrieves a student without the password hash.
// Returns (nil, nil) when no student has the email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*auth.Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, '' AS password_hash, study_program_id, institution, created_at, updated_at
		FROM students
		WHERE LOWER(email) = LOWER($1)
	`, email)

	return r.find(row, email, "find student")
}

func (r *StudentRepository) find(row pgx.Row, email, operation string) (*auth.Student, error) {
	student, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("STUDENT_FIND_FAILED").
			With("operation", operation).
			With("email", email).
			Wrap(err)
	}
	return student, nil
}

// scanStudent scans a single row into a Student.
// Callers are responsible for handling pgx.ErrNoRows.
func scanStudent(row pgx.Row) (*auth.Student, error) {
	var (
		idStr          string
		email          string
		passwordHash   string
		studyProgramID *int64
		institution    string
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&email,
		&passwordHash,
		&studyProgramID,
		&institution,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate unchanged for callers to classify.
		return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("STUDENT_INVALID_ID").
			With("operation", "parse student id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Student{
		ID:             id,
		Email:          email,
		PasswordHash:   passwordHash,
		StudyProgramID: studyProgramID,
		Institution:    institution,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.StudentRepository = (*StudentRepository)(nil)
