// Package cache provides byte-oriented caching backends for registry
// responses and resolved graphs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so that every component names entries the
// same way. [ScopedKeyer] prefixes keys to isolate registries or tenants.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
//
// Get returns (nil, false, nil) on a miss. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
// Clear returns the number of entries removed.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
