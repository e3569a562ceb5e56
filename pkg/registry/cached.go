package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/observability"
)

// CachedRegistry serves ListVersions and ListDependencies from a cache,
// falling back to the wrapped registry on a miss.
//
// Errors are never cached, so a crate that is missing today is looked up
// again on the next call.
type CachedRegistry struct {
	inner   Registry
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
}

// CacheOption configures [Cached].
type CacheOption func(*CachedRegistry)

// WithKeyer overrides the default key layout.
func WithKeyer(k cache.Keyer) CacheOption {
	return func(c *CachedRegistry) { c.keyer = k }
}

// WithRefresh skips cache reads while still writing fresh responses.
func WithRefresh(refresh bool) CacheOption {
	return func(c *CachedRegistry) { c.refresh = refresh }
}

// Cached wraps inner with c. A nil cache disables caching.
func Cached(inner Registry, c cache.Cache, ttl time.Duration, opts ...CacheOption) *CachedRegistry {
	if c == nil {
		c = cache.NewNullCache()
	}
	r := &CachedRegistry{
		inner: inner,
		cache: c,
		keyer: cache.NewDefaultKeyer(),
		ttl:   ttl,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the wrapped registry's name.
func (r *CachedRegistry) Name() string { return r.inner.Name() }

// Unwrap returns the wrapped registry.
func (r *CachedRegistry) Unwrap() Registry { return r.inner }

// ListVersions implements Registry.
func (r *CachedRegistry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	key := r.keyer.VersionsKey(r.inner.Name(), crate)
	var versions []string
	if r.lookup(ctx, key, "versions", &versions) {
		return versions, nil
	}
	versions, err := r.inner.ListVersions(ctx, crate)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, "versions", versions)
	return versions, nil
}

// ListDependencies implements Registry.
func (r *CachedRegistry) ListDependencies(ctx context.Context, crate, version string) ([]Dependency, error) {
	key := r.keyer.DependenciesKey(r.inner.Name(), crate, version)
	var deps []Dependency
	if r.lookup(ctx, key, "deps", &deps) {
		return deps, nil
	}
	deps, err := r.inner.ListDependencies(ctx, crate, version)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, "deps", deps)
	return deps, nil
}

func (r *CachedRegistry) lookup(ctx context.Context, key, keyType string, v any) bool {
	if r.refresh {
		return false
	}
	data, hit, err := r.cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true
}

func (r *CachedRegistry) store(ctx context.Context, key, keyType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
}

var _ Registry = (*CachedRegistry)(nil)
