// Package cache provides the short-TTL key-value store backing price quotes
// and risk metric results. Values are opaque byte blobs; every write is a
// full key overwrite, so concurrent readers and writers need no client-side
// locking.
package cache

import (
	"context"
	"time"
)

// Store is a key-value cache with per-entry TTLs.
type Store interface {
	// Get returns the cached value, or nil if the key is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL stores value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key string, ttl time.Duration, value []byte) error
	// DeleteExpired removes expired entries and returns how many were deleted.
	DeleteExpired(ctx context.Context) (int64, error)
	Close() error
}
