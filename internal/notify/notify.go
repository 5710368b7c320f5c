// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package notify provides auth.Notifier implementations.
package notify

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/studyreview/studyreview/internal/auth"
)

// LogNotifier records notifications in the log instead of delivering them.
// The message body is never logged; only its size is.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// Notify logs the notification. It fails only for a missing recipient or a
// canceled context.
func (n *LogNotifier) Notify(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_CANCELED").Wrap(err)
	}
	if auth.ValidateEmail(to) != nil {
		return oops.Code("NOTIFY_INVALID_RECIPIENT").With("to", to).Errorf("recipient is not a valid email address")
	}
	n.logger.InfoContext(ctx, "notification queued",
		"to", auth.NormalizeEmail(to),
		"subject", subject,
		"body_bytes", len(body))
	return nil
}

var _ auth.Notifier = (*LogNotifier)(nil)
