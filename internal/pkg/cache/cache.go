// Package cache provides the size-limited key/value store abstraction and
// the chunked blob protocol that lets arbitrarily large serialized payloads
// ride on top of it.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrValueTooLarge is returned by a Store when a single entry exceeds
	// the backend's per-entry size cap. The chunked blob layer exists to
	// keep callers from ever seeing this.
	ErrValueTooLarge = errors.New("cache value exceeds per-entry size limit")
)

// Store is an eventually-consistent key/value cache with per-entry TTL and a
// bounded per-entry value size. Implementations make no transactional
// guarantees; concurrent writers may race on the same key.
type Store interface {
	// Get returns the value and true on a hit. A missing or expired key is
	// (empty, false, nil), not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
