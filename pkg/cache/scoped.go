package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g. to
// keep a staging registry mirror apart from crates.io in a shared Redis.
//
//	mirror := NewScopedKeyer(NewDefaultKeyer(), "mirror:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// VersionsKey generates a prefixed version-list key.
func (k *ScopedKeyer) VersionsKey(registry, crate string) string {
	return k.prefix + k.inner.VersionsKey(registry, crate)
}

// DependenciesKey generates a prefixed dependency-rows key.
func (k *ScopedKeyer) DependenciesKey(registry, crate, version string) string {
	return k.prefix + k.inner.DependenciesKey(registry, crate, version)
}

// GraphKey generates a prefixed resolved-graph key.
func (k *ScopedKeyer) GraphKey(registry, crate string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(registry, crate, opts)
}
