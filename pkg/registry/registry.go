// Package registry defines the read-only boundary between the resolver and
// a source of crate metadata.
//
// # Backends
//
//   - crates.io HTTP API: [github.com/matzehuels/cratedeps/pkg/integrations/crates]
//   - crates.io database dump in SQLite: [github.com/matzehuels/cratedeps/pkg/registry/sqlstore]
//   - In-memory / TOML fixtures: [Memory], [LoadFixture]
//
// Any backend can be wrapped with [Cached] to keep responses in a
// [cache.Cache].
//
// # Contract
//
// ListVersions returns every published version string of a crate, in any
// order. An unknown crate is reported as an error wrapping [ErrNotFound];
// a known crate without versions returns an empty slice and no error.
//
// ListDependencies returns the declared dependency rows of one crate
// version, every kind included. Filtering by kind is the resolver's policy.
//
// [cache.Cache]: github.com/matzehuels/cratedeps/pkg/cache.Cache
package registry

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a crate or crate version does not exist.
var ErrNotFound = errors.New("not found")

// Registry exposes version and dependency metadata per crate.
// Implementations must be safe for concurrent use.
type Registry interface {
	// Name identifies the backend in logs, metrics and cache keys.
	Name() string
	ListVersions(ctx context.Context, crate string) ([]string, error)
	ListDependencies(ctx context.Context, crate, version string) ([]Dependency, error)
}

// Dependency is one declared dependency of a crate version.
type Dependency struct {
	Crate       string `json:"crate" toml:"name"`
	Requirement string `json:"req" toml:"req"`
	Kind        Kind   `json:"kind" toml:"kind"`
}
