package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-memory Registry. It backs fixtures and tests.
type Memory struct {
	name string

	mu     sync.RWMutex
	crates map[string]map[string][]Dependency // crate -> version -> deps
	order  map[string][]string                // crate -> versions in insertion order
}

// NewMemory creates an empty in-memory registry.
func NewMemory(name string) *Memory {
	if name == "" {
		name = "memory"
	}
	return &Memory{
		name:   name,
		crates: make(map[string]map[string][]Dependency),
		order:  make(map[string][]string),
	}
}

// Name returns the registry name.
func (m *Memory) Name() string { return m.name }

// AddCrate registers a crate without versions.
func (m *Memory) AddCrate(crate string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.crates[crate]; !ok {
		m.crates[crate] = make(map[string][]Dependency)
	}
}

// Add registers crate@version with its dependencies, replacing any previous
// rows for that version.
func (m *Memory) Add(crate, version string, deps ...Dependency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions, ok := m.crates[crate]
	if !ok {
		versions = make(map[string][]Dependency)
		m.crates[crate] = versions
	}
	if _, seen := versions[version]; !seen {
		m.order[crate] = append(m.order[crate], version)
	}
	versions[version] = slices.Clone(deps)
}

// ListVersions returns versions in insertion order.
func (m *Memory) ListVersions(ctx context.Context, crate string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.crates[crate]; !ok {
		return nil, fmt.Errorf("%w: crate %s", ErrNotFound, crate)
	}
	return slices.Clone(m.order[crate]), nil
}

// ListDependencies returns the rows registered for crate@version.
func (m *Memory) ListDependencies(ctx context.Context, crate, version string) ([]Dependency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions, ok := m.crates[crate]
	if !ok {
		return nil, fmt.Errorf("%w: crate %s", ErrNotFound, crate)
	}
	deps, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, crate, version)
	}
	return slices.Clone(deps), nil
}

var _ Registry = (*Memory)(nil)

// Crates lists crate names in sorted order.
func (m *Memory) Crates() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.crates))
	for name := range m.crates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
