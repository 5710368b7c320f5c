// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/studyreview/studyreview/internal/auth"
)

type mockStudentRepository struct {
	mock.Mock
}

func newMockStudentRepository(t *testing.T) *mockStudentRepository {
	m := &mockStudentRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockStudentRepository) Create(ctx context.Context, student *auth.Student) (*auth.Student, error) {
	args := m.Called(ctx, student)
	if fn, ok := args.Get(0).(func(context.Context, *auth.Student) *auth.Student); ok {
		return fn(ctx, student), args.Error(1)
	}
	stored, _ := args.Get(0).(*auth.Student)
	return stored, args.Error(1)
}

func (m *mockStudentRepository) FindByEmailWithPassword(ctx context.Context, email string) (*auth.Student, error) {
	args := m.Called(ctx, email)
	student, _ := args.Get(0).(*auth.Student)
	return student, args.Error(1)
}

func (m *mockStudentRepository) FindByEmail(ctx context.Context, email string) (*auth.Student, error) {
	args := m.Called(ctx, email)
	student, _ := args.Get(0).(*auth.Student)
	return student, args.Error(1)
}

type mockPasswordHasher struct {
	mock.Mock
}

func newMockPasswordHasher(t *testing.T) *mockPasswordHasher {
	m := &mockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

func (m *mockPasswordHasher) NeedsUpgrade(hash string) bool {
	return m.Called(hash).Bool(0)
}

type mockTokenIssuer struct {
	mock.Mock
}

func newMockTokenIssuer(t *testing.T) *mockTokenIssuer {
	m := &mockTokenIssuer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockTokenIssuer) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *mockTokenIssuer) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type outcome struct {
	op     string
	status auth.Status
	kind   auth.Kind
}

type recordingRecorder struct {
	outcomes []outcome
}

func (r *recordingRecorder) RecordOutcome(op string, status auth.Status, kind auth.Kind) {
	r.outcomes = append(r.outcomes, outcome{op: op, status: status, kind: kind})
}
