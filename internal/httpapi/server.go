// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package httpapi exposes the auth service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/studyreview/studyreview/internal/auth"
)

// Route paths.
const (
	RouteRegister = "/api/auth/register"
	RouteLogin    = "/api/auth/login"
	RouteSession  = "/api/auth/session"
)

// DefaultBodyLimit caps request bodies. Auth payloads are tiny.
const DefaultBodyLimit = "16K"

// Authenticator is the subset of *auth.Service the API calls.
type Authenticator interface {
	Register(ctx context.Context, reg auth.Registration) auth.Result[auth.Student]
	Authenticate(ctx context.Context, creds auth.Credentials) auth.Result[string]
	Validate(ctx context.Context, cookieOrToken string) auth.Result[auth.Student]
}

// RequestObserver receives the outcome of every request.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

type options struct {
	logger   *slog.Logger
	observer RequestObserver
}

// Option configures the API.
type Option func(*options)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the request metrics sink.
func WithObserver(observer RequestObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// New builds the echo instance serving the auth routes.
func New(svc Authenticator, opts ...Option) *echo.Echo {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(o.logger)

	e.Use(middleware.Recover())
	if o.observer != nil {
		e.Use(observe(o.observer))
	}
	e.Use(requestLogger(o.logger))
	e.Use(middleware.BodyLimit(DefaultBodyLimit))

	h := &handlers{svc: svc}
	e.POST(RouteRegister, h.register)
	e.POST(RouteLogin, h.login)
	e.GET(RouteSession, h.session)

	return e
}

// observe reports each request to the observer under its route pattern.
func observe(observer RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveRequest(c.Request().Method, route, c.Response().Status, time.Since(start))
			return nil
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			ctx := c.Request().Context()
			if v.Error != nil {
				logger.WarnContext(ctx, "request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.DebugContext(ctx, "request handled", attrs...)
			return nil
		},
	})
}

// errorHandler renders routing and middleware errors in the Result shape.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		} else {
			logger.ErrorContext(c.Request().Context(), "unhandled request error", "error", err)
		}

		body := auth.Fail[struct{}](auth.KindNone, http.StatusText(code), err)
		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			logger.WarnContext(c.Request().Context(), "failed to write error response", "error", writeErr)
		}
	}
}
