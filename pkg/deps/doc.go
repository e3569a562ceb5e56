// Package deps resolves the transitive dependency graph of a crate.
//
// # Overview
//
// Starting from a root crate, the [Resolver] repeatedly asks a
// [registry.Registry] for dependency rows, picks the highest version that
// satisfies each row's requirement, and records one node per distinct
// (crate, version) pair and one edge per distinct (source, target) pair.
//
// The result is not a build plan: every edge picks its version on its own,
// so one crate can appear at several versions in the same graph. There is
// no unification, backtracking or feature resolution.
//
// # Components
//
//   - [Catalog]: parsed, sorted version lists and the latest version
//   - [SelectVersion]: requirement parsing and highest-match selection
//   - [graph.NodeStore]: node deduplication by (crate, version)
//   - [Resolver]: the traversal
//
// # Traversal
//
// The walk is depth-first over an explicit stack. A target node is
// descended into only when its incoming edge is new, which is what makes
// cycles terminate: the second time round, the edge already exists.
//
// Sibling rows of one node are resolved concurrently (bounded by
// [Options.Workers]), but their results are applied to the graph in row
// order by the traversal goroutine, which is the graph's only writer.
//
// # Failures
//
// Only root failures abort a resolution:
//
//   - ROOT_NOT_FOUND: the crate (or pinned version) does not exist
//   - NO_VERSIONS: the crate exists but has no usable versions
//
// Everything below the root is recorded as an [Issue] on the [Result] and
// traversal continues:
//
//   - NO_COMPATIBLE_VERSION, MALFORMED_REQUIREMENT: the edge is skipped
//   - DEPTH_EXCEEDED: the node is kept but not expanded
//   - NODE_LIMIT: edges to new nodes are skipped once the graph is full
//   - REGISTRY_ERROR: a lookup failed; the edge or expansion is skipped
//
// # Options
//
// [Options] controls resolution behavior:
//
//   - MaxDepth: maximum expansion depth (default 50)
//   - MaxNodes: maximum node count (default 5000)
//   - Workers: concurrent lookups per expansion (default 8)
//   - Kinds: dependency kinds that are followed (default normal, build)
//   - Logger: charmbracelet logger; nil discards
//
// [registry.Registry]: github.com/matzehuels/cratedeps/pkg/registry.Registry
// [graph.NodeStore]: github.com/matzehuels/cratedeps/pkg/graph.NodeStore
package deps
