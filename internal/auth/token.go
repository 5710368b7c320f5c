// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the session token lifetime. It equals the cookie Max-Age.
const DefaultTokenTTL = time.Hour

// TokenIssuer creates and verifies session tokens bound to a subject email.
type TokenIssuer interface {
	// Issue returns a signed token for subject.
	Issue(subject string) (string, error)

	// Verify returns the subject of a valid token.
	// Every failure wraps ErrTokenInvalid and is otherwise indistinguishable.
	Verify(token string) (string, error)
}

// TokenConfig holds the process-wide signing configuration.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	// Issuer is written to the iss claim when set and then required on verify.
	Issuer string
}

// JWTIssuer implements TokenIssuer with HS256-signed JWTs.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// IssuerOption configures a JWTIssuer.
type IssuerOption func(*JWTIssuer)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *JWTIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewJWTIssuer creates a JWTIssuer. An empty secret is rejected.
func NewJWTIssuer(cfg TokenConfig, opts ...IssuerOption) (*JWTIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code(CodeMissingDependency).Errorf("token signing secret cannot be empty")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	issuer := &JWTIssuer{
		secret: secret,
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// TTL returns the lifetime of issued tokens.
func (i *JWTIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns an HS256 token with sub, iat and exp claims.
func (i *JWTIssuer) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", oops.Code(CodeTokenIssueFailed).Errorf("token subject cannot be empty")
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code(CodeTokenIssueFailed).
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, nil
}

// Verify parses token and returns its subject.
func (i *JWTIssuer) Verify(token string) (string, error) {
	if token == "" {
		return "", tokenInvalid(nil)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		return "", tokenInvalid(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", tokenInvalid(nil)
	}
	return claims.Subject, nil
}

var _ TokenIssuer = (*JWTIssuer)(nil)
