// Package cache provides the key-value store behind the transaction listing
// cache-aside path. Entries live under named scopes whose keys embed a
// version counter, so flushing a scope invalidates every entry at once
// without enumerating keys.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a TTL key-value backend.
type Store interface {
	// Get returns the raw value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. ttl of 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Increment atomically increments the counter at key and returns the
	// new value. Missing counters start at 0.
	Increment(ctx context.Context, key string) (int64, error)
}
