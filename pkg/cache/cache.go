// Package cache stores rendered card artifacts so identical requests don't
// repaint and re-encode. Three backends are provided: a file cache for CLI
// usage, a Redis cache for server deployments, and a null cache that
// disables caching entirely.
package cache

import (
	"context"
	"time"
)

// Artifact TTLs. Vector and still output are cheap to recompute; animations
// are not, so they live longer.
const (
	TTLStill     = 24 * time.Hour
	TTLAnimation = 7 * 24 * time.Hour
)

// Cache is the backend interface. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLFor returns the artifact TTL for an output format.
func TTLFor(format string) time.Duration {
	if format == "gif" {
		return TTLAnimation
	}
	return TTLStill
}
