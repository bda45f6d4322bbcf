// Package cache defines the TTL key-value store used for normalized API
// responses. The store is opaque to the caller's data shape: values go in and
// come out as raw bytes.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store. An expired entry is never returned; lookup
// treats it as absent.
type Cache interface {
	// Get returns the value for key, or ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeleteByPrefix removes every key with the given prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
