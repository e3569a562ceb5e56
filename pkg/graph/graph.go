package graph

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source id
	// does not belong to the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target id
	// does not belong to the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrFrozen is returned by mutating calls after [Graph.Freeze].
	ErrFrozen = errors.New("graph is frozen")
)

// NodeID is a stable, dense node identifier. Ids start at 0 and follow
// insertion order.
type NodeID int

// Node is one (crate, version) vertex.
type Node struct {
	ID      NodeID
	Crate   string
	Version string
}

// Label returns the display label "<crate> - <version>".
func (n Node) Label() string { return Label(n.Crate, n.Version) }

// Label formats a crate/version pair the way nodes are labelled.
func Label(crate, version string) string { return crate + " - " + version }

// Edge means "From concretely depends on To".
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is the node and edge set of one resolution.
//
// The zero value is not usable; call [New].
type Graph struct {
	nodes    []Node
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing [][]NodeID
	incoming [][]NodeID
	frozen   bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{edgeSet: make(map[Edge]struct{})}
}

// addNode appends a node. Only the NodeStore calls it, so identity
// deduplication lives in one place.
func (g *Graph) addNode(crate, version string) (NodeID, error) {
	if g.frozen {
		return -1, ErrFrozen
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Crate: crate, Version: version})
	g.outgoing = append(g.outgoing, nil)
	g.incoming = append(g.incoming, nil)
	return id, nil
}

// AddEdge inserts from->to unless it is already present.
// It returns true only when the edge was newly inserted; a second call with
// the same pair is a no-op returning false.
func (g *Graph) AddEdge(from, to NodeID) (bool, error) {
	if g.frozen {
		return false, ErrFrozen
	}
	if !g.valid(from) {
		return false, ErrUnknownSourceNode
	}
	if !g.valid(to) {
		return false, ErrUnknownTargetNode
	}
	e := Edge{From: from, To: to}
	if _, ok := g.edgeSet[e]; ok {
		return false, nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return true, nil
}

// HasEdge reports whether from->to exists.
func (g *Graph) HasEdge(from, to NodeID) bool {
	_, ok := g.edgeSet[Edge{From: from, To: to}]
	return ok
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether [Graph.Freeze] has been called.
func (g *Graph) Frozen() bool { return g.frozen }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if !g.valid(id) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Lookup finds the node for crate at exactly version (string match).
// Use a [NodeStore] for precedence-based identity.
func (g *Graph) Lookup(crate, version string) (Node, bool) {
	for _, n := range g.nodes {
		if n.Crate == crate && n.Version == version {
			return n, true
		}
	}
	return Node{}, false
}

// Nodes returns a copy of all nodes in id order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the direct dependencies of id in insertion order.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return slices.Clone(g.outgoing[id])
}

// Parents returns the direct dependents of id in insertion order.
func (g *Graph) Parents(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return slices.Clone(g.incoming[id])
}

// InDegree returns the number of edges terminating at id.
func (g *Graph) InDegree(id NodeID) int {
	if !g.valid(id) {
		return 0
	}
	return len(g.incoming[id])
}

// OutDegree returns the number of edges leaving id.
func (g *Graph) OutDegree(id NodeID) int {
	if !g.valid(id) {
		return 0
	}
	return len(g.outgoing[id])
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}
