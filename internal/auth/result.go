// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

// Status is the tag of an operation outcome.
type Status string

// Outcome tags.
const (
	StatusOk    Status = "Ok"
	StatusError Status = "Error"
)

// Result is the outcome of a service operation.
// On StatusError, Data is always nil.
type Result[T any] struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    *T     `json:"data"`

	// Kind and Err describe a failure for logging and metrics. They are never serialized.
	Kind Kind  `json:"-"`
	Err  error `json:"-"`
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Status == StatusOk
}

// Ok builds a successful result. data may be nil.
func Ok[T any](message string, data *T) Result[T] {
	return Result[T]{Status: StatusOk, Message: message, Data: data}
}

// Fail builds a failed result with no payload.
func Fail[T any](kind Kind, message string, err error) Result[T] {
	return Result[T]{Status: StatusError, Message: message, Kind: kind, Err: err}
}
