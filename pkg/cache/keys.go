package cache

import (
	"fmt"
	"slices"
)

// Keyer generates cache keys for each kind of cached value.
type Keyer interface {
	// VersionsKey names the version list of a crate in a registry.
	VersionsKey(registry, crate string) string
	// DependenciesKey names the dependency rows of one crate version.
	DependenciesKey(registry, crate, version string) string
	// GraphKey names a resolved graph. Options are hashed into the key.
	GraphKey(registry, crate string, opts GraphKeyOpts) string
}

// GraphKeyOpts holds the resolution options that change a graph.
type GraphKeyOpts struct {
	Version  string   `json:"version,omitempty"`
	MaxDepth int      `json:"max_depth"`
	MaxNodes int      `json:"max_nodes"`
	Kinds    []string `json:"kinds"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// VersionsKey returns "versions:<registry>:<crate>".
func (DefaultKeyer) VersionsKey(registry, crate string) string {
	return fmt.Sprintf("versions:%s:%s", registry, crate)
}

// DependenciesKey returns "deps:<registry>:<crate>@<version>".
func (DefaultKeyer) DependenciesKey(registry, crate, version string) string {
	return fmt.Sprintf("deps:%s:%s@%s", registry, crate, version)
}

// GraphKey returns "graph:<sha256>" over the registry, crate and options.
// Kinds are sorted first so that equivalent option sets share a key.
func (DefaultKeyer) GraphKey(registry, crate string, opts GraphKeyOpts) string {
	opts.Kinds = slices.Sorted(slices.Values(opts.Kinds))
	return hashKey("graph", registry, crate, opts)
}

var _ Keyer = DefaultKeyer{}
