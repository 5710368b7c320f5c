// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package auth

import (
	"context"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// BoundedHasher limits how many hash computations run at once.
// Each argon2id computation allocates 64 MB, so unbounded parallel logins
// can exhaust memory.
type BoundedHasher struct {
	inner PasswordHasher
	sem   *semaphore.Weighted
}

// NewBoundedHasher wraps inner so that at most limit Hash or Verify calls
// execute concurrently. A non-positive limit selects runtime.NumCPU().
func NewBoundedHasher(inner PasswordHasher, limit int) *BoundedHasher {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &BoundedHasher{
		inner: inner,
		sem:   semaphore.NewWeighted(int64(limit)),
	}
}

// HashContext hashes password once a slot is free or ctx is done.
func (b *BoundedHasher) HashContext(ctx context.Context, password string) (string, error) {
	if err := b.acquire(ctx); err != nil {
		return "", err
	}
	defer b.sem.Release(1)
	return b.inner.Hash(password)
}

// VerifyContext verifies password once a slot is free or ctx is done.
func (b *BoundedHasher) VerifyContext(ctx context.Context, password, hash string) (bool, error) {
	if err := b.acquire(ctx); err != nil {
		return false, err
	}
	defer b.sem.Release(1)
	return b.inner.Verify(password, hash)
}

// Hash implements PasswordHasher without a deadline.
func (b *BoundedHasher) Hash(password string) (string, error) {
	return b.HashContext(context.Background(), password)
}

// Verify implements PasswordHasher without a deadline.
func (b *BoundedHasher) Verify(password, hash string) (bool, error) {
	return b.VerifyContext(context.Background(), password, hash)
}

// NeedsUpgrade delegates to the wrapped hasher; it does no hashing.
func (b *BoundedHasher) NeedsUpgrade(hash string) bool {
	return b.inner.NeedsUpgrade(hash)
}

func (b *BoundedHasher) acquire(ctx context.Context) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return oops.Code(CodeHashCapacityCanceled).
			With("operation", "acquire hash slot").
			Wrap(err)
	}
	return nil
}

// ContextHasher is implemented by hashers that can honour a caller's context.
type ContextHasher interface {
	HashContext(ctx context.Context, password string) (string, error)
	VerifyContext(ctx context.Context, password, hash string) (bool, error)
}

var _ ContextHasher = (*BoundedHasher)(nil)

func hashWithContext(ctx context.Context, h PasswordHasher, password string) (string, error) {
	if ch, ok := h.(ContextHasher); ok {
		return ch.HashContext(ctx, password)
	}
	return h.Hash(password)
}

func verifyWithContext(ctx context.Context, h PasswordHasher, password, hash string) (bool, error) {
	if ch, ok := h.(ContextHasher); ok {
		return ch.VerifyContext(ctx, password, hash)
	}
	return h.Verify(password, hash)
}
