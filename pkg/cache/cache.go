// Package cache provides caching for expensive subprocess queries.
//
// The engine's only genuinely slow read is asking an interpreter environment
// for its installed-package set (a `pip list` subprocess). This package lets
// that snapshot survive across CLI invocations. Implementations:
//   - file: File-based cache for CLI usage (default)
//   - redis: Redis-backed cache for a shared daemon serving many editors
//   - null: No-op cache for tests or --no-cache
//
// Cached values are opaque byte slices; callers own serialization. Entries
// carry a TTL and are invalidated eagerly after installs, so a stale read is
// bounded by one install cycle.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Keyer generates cache keys for the engine's cacheable queries.
type Keyer interface {
	// PackagesKey generates a key for an environment's installed-package
	// snapshot. The fingerprint should change whenever the environment's
	// site-packages may have changed (e.g. interpreter mtime).
	PackagesKey(interpreter, fingerprint string) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PackagesKey generates a key for an installed-package snapshot.
func (k *DefaultKeyer) PackagesKey(interpreter, fingerprint string) string {
	return hashKey("pkgs", interpreter, fingerprint)
}
