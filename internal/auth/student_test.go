// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth_test

import (
	"encoding/json"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyreview/studyreview/internal/auth"
	"github.com/studyreview/studyreview/pkg/errutil"
)

func TestNewStudent(t *testing.T) {
	t.Run("creates valid student", func(t *testing.T) {
		programID := int64(3)
		student, err := auth.NewStudent(auth.Registration{
			Email:          "  Student@Example.com ",
			Password:       "longenough1",
			StudyProgramID: &programID,
			Institution:    " TU Delft ",
		}, "$argon2id$hash")
		require.NoError(t, err)
		require.NotNil(t, student)

		assert.NotEqual(t, ulid.ULID{}, student.ID)
		assert.Equal(t, "student@example.com", student.Email)
		assert.Equal(t, "$argon2id$hash", student.PasswordHash)
		assert.Equal(t, &programID, student.StudyProgramID)
		assert.Equal(t, "TU Delft", student.Institution)
		assert.False(t, student.CreatedAt.IsZero())
		assert.Equal(t, student.CreatedAt, student.UpdatedAt)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		student, err := auth.NewStudent(auth.Registration{Email: "nope"}, "$argon2id$hash")
		assert.Nil(t, student)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidEmail)
	})

	t.Run("rejects whitespace-only password hash", func(t *testing.T) {
		student, err := auth.NewStudent(auth.Registration{Email: "a@b.com"}, "   \t  ")
		assert.Nil(t, student)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidHash)
	})

	t.Run("rejects hash equal to plaintext", func(t *testing.T) {
		student, err := auth.NewStudent(auth.Registration{Email: "a@b.com", Password: "longenough1"}, "longenough1")
		assert.Nil(t, student)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidHash)
	})
}

func TestStudent_JSONOmitsPasswordHash(t *testing.T) {
	student := auth.Student{ID: ulid.Make(), Email: "a@b.com", PasswordHash: "$argon2id$secret"}

	body, err := json.Marshal(student)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "a@b.com", decoded["email"])
	assert.NotContains(t, decoded, "password_hash")
	assert.NotContains(t, decoded, "PasswordHash")
	assert.NotContains(t, string(body), "secret")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", auth.NormalizeEmail("  A@B.Com\n"))
}
