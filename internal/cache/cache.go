package cache

import (
	"context"
	"errors"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// SnapshotCache holds per-user cart snapshots between the checkout screen
// mount and the submission.
type SnapshotCache interface {
	Get(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, userID string, snapshot *domain.CartSnapshot) error
	Delete(ctx context.Context, userID string) error
}

// AttemptLocker guards the one-attempt-in-flight rule per user across
// instances. Acquire returns false when another attempt holds the lock.
type AttemptLocker interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
