// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/studyreview/studyreview/internal/auth"
	"github.com/studyreview/studyreview/internal/auth/postgres"
)

var _ = Describe("StudentRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.StudentRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewStudentRepository(pool)
		cleanStudents()
	})

	newStudent := func(email string) *auth.Student {
		student, err := auth.NewStudent(auth.Registration{Email: email, Password: "longenough1"}, "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		Expect(err).NotTo(HaveOccurred())
		return student
	}

	Describe("Create", func() {
		It("stores and returns the student", func() {
			student := newStudent("a@b.com")

			stored, err := repo.Create(ctx, student)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(student.ID))
			Expect(stored.Email).To(Equal("a@b.com"))
			Expect(stored.PasswordHash).To(Equal(student.PasswordHash))
			Expect(stored.StudyProgramID).To(BeNil())
		})

		It("rejects an email that differs only in case", func() {
			_, err := repo.Create(ctx, newStudent("a@b.com"))
			Expect(err).NotTo(HaveOccurred())

			dup := newStudent("a@b.com")
			dup.Email = "A@B.COM"
			_, err = repo.Create(ctx, dup)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, auth.ErrEmailTaken)).To(BeTrue())

			oopsErr, ok := oops.AsOops(err)
			Expect(ok).To(BeTrue())
			Expect(oopsErr.Code()).To(Equal(auth.CodeEmailTaken))
		})

		It("rejects an unknown study program", func() {
			student := newStudent("c@d.com")
			missing := int64(424242)
			student.StudyProgramID = &missing

			_, err := repo.Create(ctx, student)
			Expect(err).To(HaveOccurred())
			Expect(oops.GetPublic(err, "")).To(Equal("unknown study program"))
		})

		It("links an existing study program", func() {
			var programID int64
			err := pool.QueryRow(ctx,
				`INSERT INTO study_programs (name, institution) VALUES ($1, $2) RETURNING id`,
				"Computer Science", "TU Berlin").Scan(&programID)
			Expect(err).NotTo(HaveOccurred())

			student := newStudent("e@f.com")
			student.StudyProgramID = &programID
			stored, err := repo.Create(ctx, student)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.StudyProgramID).To(HaveValue(Equal(programID)))
		})
	})

	Describe("lookups", func() {
		var student *auth.Student

		BeforeEach(func() {
			var err error
			student, err = repo.Create(ctx, newStudent("x@y.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("finds the student with its hash regardless of email case", func() {
			found, err := repo.FindByEmailWithPassword(ctx, "X@Y.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.ID).To(Equal(student.ID))
			Expect(found.PasswordHash).To(Equal(student.PasswordHash))
		})

		It("omits the hash from FindByEmail", func() {
			found, err := repo.FindByEmail(ctx, "x@y.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.PasswordHash).To(BeEmpty())
		})

		It("returns nil for an unknown email", func() {
			found, err := repo.FindByEmailWithPassword(ctx, "nobody@y.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())

			found, err = repo.FindByEmail(ctx, "nobody@y.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})
	})
})
