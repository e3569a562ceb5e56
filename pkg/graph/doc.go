// Package graph holds the dependency graph produced by one resolution.
//
// # Overview
//
// A [Graph] is an arena: nodes live in a slice and are addressed by dense
// integer [NodeID] values, edges are ordered id pairs. Each node identifies
// one (crate, concrete version) pair. There is exactly one node per pair,
// which is what the [NodeStore] guarantees, and at most one edge per ordered
// pair of nodes, which [Graph.AddEdge] guarantees.
//
// # Building
//
// The resolver owns a fresh Graph and NodeStore per call:
//
//	g := graph.New()
//	store := graph.NewNodeStore()
//	a := store.Ensure(g, "a", semver.MustParse("1.0.0"))
//	b := store.Ensure(g, "b", semver.MustParse("1.2.0"))
//	if added, _ := g.AddEdge(a, b); added {
//	    // first time a -> b was seen: descend into b
//	}
//	g.Freeze()
//
// AddEdge reports whether the edge is new. That single check-then-insert is
// the cycle breaker: a dependency cycle collapses onto an edge that is
// already present, so traversal stops.
//
// # Identity
//
// Versions are compared by semver precedence, so build metadata does not
// split nodes: serde 1.0.0+build1 and 1.0.0+build2 share one node. The node
// keeps the version string it was first registered with.
//
// # Concurrency
//
// Graph and NodeStore are not safe for concurrent mutation. Once frozen, a
// Graph is read-only and may be shared freely.
package graph
