package graph

import (
	"github.com/Masterminds/semver/v3"
)

// NodeStore deduplicates nodes by (crate, version precedence) for the
// lifetime of one resolution.
type NodeStore struct {
	seen map[nodeKey]NodeID
}

type nodeKey struct {
	crate   string
	version string
}

// NewNodeStore creates an empty store.
func NewNodeStore() *NodeStore {
	return &NodeStore{seen: make(map[nodeKey]NodeID)}
}

// Ensure returns the node for (crate, v), creating it in g on first sight.
// Calling it again with the same pair, or with a version that differs only
// in build metadata, returns the same id and leaves g untouched.
//
// Ensure returns -1 only if g is frozen and the pair is new.
func (s *NodeStore) Ensure(g *Graph, crate string, v *semver.Version) NodeID {
	key := nodeKey{crate: crate, version: Canonical(v)}
	if id, ok := s.seen[key]; ok {
		return id
	}
	id, err := g.addNode(crate, v.Original())
	if err != nil {
		return -1
	}
	s.seen[key] = id
	return id
}

// Lookup returns the id registered for (crate, v) without creating one.
func (s *NodeStore) Lookup(crate string, v *semver.Version) (NodeID, bool) {
	id, ok := s.seen[nodeKey{crate: crate, version: Canonical(v)}]
	return id, ok
}

// Len returns the number of distinct pairs seen.
func (s *NodeStore) Len() int { return len(s.seen) }

// Canonical renders v without build metadata, so that versions of equal
// precedence map to the same string.
func Canonical(v *semver.Version) string {
	if v.Metadata() == "" {
		return v.String()
	}
	stripped, err := v.SetMetadata("")
	if err != nil {
		return v.String()
	}
	return stripped.String()
}
