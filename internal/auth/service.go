// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/studyreview/studyreview/pkg/errutil"
)

var tracer = otel.Tracer("studyreview/auth")

// Operation names reported to spans, logs and the OutcomeRecorder.
const (
	OpRegister     = "register"
	OpAuthenticate = "authenticate"
	OpValidate     = "validate"
)

// dummyPasswordHash is used when a student doesn't exist to prevent timing attacks.
// It is verified like a real hash but never matches any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// OutcomeRecorder receives the outcome of every service operation.
type OutcomeRecorder interface {
	RecordOutcome(operation string, status Status, kind Kind)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, Status, Kind) {}

// Service registers students, authenticates credentials and validates session tokens.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	students  StudentRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	cookies   *CookieEncoder
	validator Validator
	notifier  Notifier // optional, never invoked by the current operations
	recorder  OutcomeRecorder
	logger    *slog.Logger
}

// Option configures a Service during construction.
type Option func(*Service)

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithValidator replaces the default registration validator.
func WithValidator(v Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// WithNotifier attaches an email notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithRecorder sets the recorder that receives operation outcomes.
func WithRecorder(r OutcomeRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a Service. Returns an error if a required dependency is nil.
func NewService(students StudentRepository, hasher PasswordHasher, tokens TokenIssuer, cookies *CookieEncoder, opts ...Option) (*Service, error) {
	if students == nil {
		return nil, missingDependency("student repository")
	}
	if hasher == nil {
		return nil, missingDependency("password hasher")
	}
	if tokens == nil {
		return nil, missingDependency("token issuer")
	}
	if cookies == nil {
		return nil, missingDependency("cookie encoder")
	}

	s := &Service{
		students:  students,
		hasher:    hasher,
		tokens:    tokens,
		cookies:   cookies,
		validator: NewValidator(DefaultMinPasswordLength),
		recorder:  nopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func missingDependency(name string) error {
	return oops.Code(CodeMissingDependency).With("dependency", name).Errorf("%s is required", name)
}

// Notifier returns the configured notifier, or nil.
func (s *Service) Notifier() Notifier {
	return s.notifier
}

// Register validates reg, hashes its password and stores the new student.
// The first failing validation rule determines the message; nothing is stored in that case.
func (s *Service) Register(ctx context.Context, reg Registration) (result Result[Student]) {
	ctx, span := s.start(ctx, OpRegister)
	defer func() { finish(s.recorder, span, OpRegister, result) }()

	if err := s.validator.Validate(reg); err != nil {
		return Fail[Student](kindOf(err), oops.GetPublic(err, MsgRegistrationFailed), err)
	}

	hash, err := hashWithContext(ctx, s.hasher, reg.Password)
	if err != nil {
		return fail[Student](ctx, s, OpRegister, KindInternal, MsgRegistrationFailed,
			oops.Code(CodeRegisterFailed).With("operation", "hash password").Wrap(err))
	}

	student, err := NewStudent(reg, hash)
	if err != nil {
		return fail[Student](ctx, s, OpRegister, KindInternal, MsgRegistrationFailed,
			oops.Code(CodeRegisterFailed).With("operation", "build student").Wrap(err))
	}

	stored, err := s.students.Create(ctx, student)
	if err != nil {
		msg := oops.GetPublic(err, MsgRegistrationFailed)
		if errors.Is(err, ErrEmailTaken) {
			msg = MsgEmailTaken
		}
		return fail[Student](ctx, s, OpRegister, KindRepositoryFailure, msg,
			oops.Code(CodeRegisterFailed).
				With("operation", "create student").
				With("email", student.Email).
				Wrap(err))
	}
	if stored == nil {
		stored = student
	}

	return Ok(MsgStudentRegistered, withoutHash(stored))
}

// Authenticate checks creds and, on success, returns a serialized session cookie.
// Unknown email and wrong password produce the same message.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (result Result[string]) {
	ctx, span := s.start(ctx, OpAuthenticate)
	defer func() { finish(s.recorder, span, OpAuthenticate, result) }()

	email := NormalizeEmail(creds.Email)

	student, err := s.students.FindByEmailWithPassword(ctx, email)
	if err != nil {
		return fail[string](ctx, s, OpAuthenticate, KindRepositoryFailure, MsgAuthenticationFailed,
			oops.Code(CodeAuthenticateFailed).
				With("operation", "find student by email").
				Wrap(err))
	}

	targetHash := dummyPasswordHash
	if student != nil {
		targetHash = student.PasswordHash
	}

	// Always verify so response time does not reveal whether the email exists.
	valid, verifyErr := verifyWithContext(ctx, s.hasher, creds.Password, targetHash)
	if verifyErr != nil {
		if student == nil {
			return Fail[string](KindAuthenticationFailed, MsgAuthenticationFailed, verifyErr)
		}
		return fail[string](ctx, s, OpAuthenticate, KindAuthenticationFailed, MsgAuthenticationFailed,
			oops.Code(CodeAuthenticateFailed).
				With("operation", "verify password").
				With("student_id", student.ID.String()).
				Wrap(verifyErr))
	}

	if student == nil || !valid {
		return Fail[string](KindAuthenticationFailed, MsgAuthenticationFailed,
			oops.Code(CodeInvalidCredentials).Errorf("invalid email or password"))
	}

	if s.hasher.NeedsUpgrade(student.PasswordHash) {
		s.logger.InfoContext(ctx, "student password hash uses a legacy algorithm",
			"student_id", student.ID.String())
	}

	token, err := s.tokens.Issue(student.Email)
	if err != nil {
		return fail[string](ctx, s, OpAuthenticate, KindInternal, MsgAuthenticationFailed,
			oops.Code(CodeAuthenticateFailed).
				With("operation", "issue token").
				Wrap(err))
	}

	cookie := s.cookies.Encode(token)
	return Ok(MsgAuthenticationSuccess, &cookie)
}

// Validate verifies a session cookie or bare token and looks up its student.
// Data is nil when the token is valid but the student no longer exists.
func (s *Service) Validate(ctx context.Context, cookieOrToken string) (result Result[Student]) {
	ctx, span := s.start(ctx, OpValidate)
	defer func() { finish(s.recorder, span, OpValidate, result) }()

	token, err := s.cookies.Decode(cookieOrToken)
	if err != nil {
		return Fail[Student](KindTokenInvalid, MsgTokenInvalid, err)
	}

	email, err := s.tokens.Verify(token)
	if err != nil {
		return Fail[Student](KindTokenInvalid, MsgTokenInvalid, err)
	}

	student, err := s.students.FindByEmail(ctx, email)
	if err != nil {
		return fail[Student](ctx, s, OpValidate, KindRepositoryFailure, MsgTokenInvalid,
			oops.Code(CodeValidateFailed).
				With("operation", "find student by email").
				Wrap(err))
	}

	return Ok(MsgStudentFound, withoutHash(student))
}

// fail logs err and builds a failed result. Used for failures the caller cannot correct.
func fail[T any](ctx context.Context, s *Service, op string, kind Kind, msg string, err error) Result[T] {
	errutil.LogErrorContext(ctx, s.logger.With("operation", op, "kind", string(kind)), "auth operation failed", err)
	return Fail[T](kind, msg, err)
}

func (s *Service) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "auth."+op, trace.WithAttributes(attribute.String("auth.operation", op)))
}

// finish records the outcome on the span and the recorder, then ends the span.
func finish[T any](recorder OutcomeRecorder, span trace.Span, op string, result Result[T]) {
	span.SetAttributes(attribute.String("auth.status", string(result.Status)))
	if !result.OK() {
		span.SetAttributes(attribute.String("auth.kind", string(result.Kind)))
		if result.Err != nil {
			span.RecordError(result.Err)
		}
		span.SetStatus(codes.Error, result.Message)
	}
	recorder.RecordOutcome(op, result.Status, result.Kind)
	span.End()
}

func withoutHash(student *Student) *Student {
	if student == nil {
		return nil
	}
	out := *student
	out.PasswordHash = ""
	return &out
}
