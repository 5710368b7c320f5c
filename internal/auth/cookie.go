// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"net/http"
	"strings"
)

// Session cookie attributes.
const (
	CookieName   = "auth"
	CookiePath   = "/"
	CookieMaxAge = 3600
)

// CookieEncoder serializes session tokens into Set-Cookie values.
type CookieEncoder struct {
	development bool
}

// NewCookieEncoder creates a CookieEncoder. Development mode omits the Secure attribute
// so the cookie survives plain-HTTP local testing.
func NewCookieEncoder(development bool) *CookieEncoder {
	return &CookieEncoder{development: development}
}

// Cookie returns the cookie descriptor for token.
func (e *CookieEncoder) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   !e.development,
		SameSite: http.SameSiteStrictMode,
	}
}

// Encode returns the serialized cookie for token, e.g.
// auth=<token>; Path=/; Max-Age=3600; HttpOnly; Secure; SameSite=Strict.
func (e *CookieEncoder) Encode(token string) string {
	return e.Cookie(token).String()
}

// Decode extracts the token from a serialized session cookie or returns a bare token as is.
// A cookie whose name or attributes differ from what Encode produces is rejected.
func (e *CookieEncoder) Decode(cookieOrToken string) (string, error) {
	raw := strings.TrimSpace(cookieOrToken)
	if raw == "" {
		return "", tokenInvalid(nil)
	}

	// JWTs are base64url segments and never contain '=' or ';'.
	if !strings.ContainsAny(raw, "=;") {
		return raw, nil
	}

	c, err := http.ParseSetCookie(raw)
	if err != nil {
		return "", tokenInvalid(err)
	}
	if !e.matches(c) {
		return "", tokenInvalid(nil)
	}
	return c.Value, nil
}

func (e *CookieEncoder) matches(c *http.Cookie) bool {
	want := e.Cookie(c.Value)
	return c.Name == want.Name &&
		c.Value != "" &&
		c.Path == want.Path &&
		c.MaxAge == want.MaxAge &&
		c.HttpOnly == want.HttpOnly &&
		c.Secure == want.Secure &&
		c.SameSite == want.SameSite &&
		c.Domain == "" &&
		c.Expires.IsZero() &&
		!c.Partitioned &&
		len(c.Unparsed) == 0
}
