// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studyreview/studyreview/internal/auth"
)

// MsgInvalidRequestBody is returned when a request body cannot be decoded.
const MsgInvalidRequestBody = "invalid request body"

type handlers struct {
	svc Authenticator
}

// register handles POST /api/auth/register.
func (h *handlers) register(c echo.Context) error {
	var reg auth.Registration
	if err := c.Bind(&reg); err != nil {
		return c.JSON(http.StatusBadRequest, auth.Fail[auth.Student](auth.KindNone, MsgInvalidRequestBody, err))
	}

	result := h.svc.Register(c.Request().Context(), reg)
	if result.OK() {
		return c.JSON(http.StatusCreated, result)
	}
	return c.JSON(statusFor(result.Kind, result.Message), result)
}

// login handles POST /api/auth/login. The session cookie is returned both as
// a Set-Cookie header and as the result data.
func (h *handlers) login(c echo.Context) error {
	var creds auth.Credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, auth.Fail[string](auth.KindNone, MsgInvalidRequestBody, err))
	}

	result := h.svc.Authenticate(c.Request().Context(), creds)
	if !result.OK() {
		return c.JSON(statusFor(result.Kind, result.Message), result)
	}
	if result.Data != nil {
		c.Response().Header().Add(echo.HeaderSetCookie, *result.Data)
	}
	return c.JSON(http.StatusOK, result)
}

// session handles GET /api/auth/session. The token comes from the auth cookie
// or, failing that, an Authorization bearer header.
func (h *handlers) session(c echo.Context) error {
	result := h.svc.Validate(c.Request().Context(), tokenFromRequest(c))
	if !result.OK() {
		return c.JSON(statusFor(result.Kind, result.Message), result)
	}
	return c.JSON(http.StatusOK, result)
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind auth.Kind, message string) int {
	switch kind {
	case auth.KindInvalidEmail, auth.KindMissingPassword, auth.KindPasswordTooShort:
		return http.StatusBadRequest
	case auth.KindAuthenticationFailed, auth.KindTokenInvalid:
		return http.StatusUnauthorized
	case auth.KindRepositoryFailure:
		switch message {
		case auth.MsgEmailTaken:
			return http.StatusConflict
		case auth.MsgUnknownStudyProgram:
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
