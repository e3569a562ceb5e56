package graph

import (
	"maps"
	"slices"
)

// Stats summarizes a resolved graph.
type Stats struct {
	Nodes    int
	Edges    int
	Crates   int                 // distinct crate names
	MaxDepth int                 // longest shortest-path from the root
	Versions map[string][]string // crates present at more than one version
}

// Summarize computes [Stats] for g as seen from root.
func Summarize(g *Graph, root NodeID) Stats {
	s := Stats{
		Nodes:    g.NodeCount(),
		Edges:    g.EdgeCount(),
		Versions: make(map[string][]string),
	}

	byCrate := make(map[string][]string)
	for _, n := range g.nodes {
		byCrate[n.Crate] = append(byCrate[n.Crate], n.Version)
	}
	s.Crates = len(byCrate)
	for _, name := range slices.Sorted(maps.Keys(byCrate)) {
		if vs := byCrate[name]; len(vs) > 1 {
			s.Versions[name] = vs
		}
	}

	s.MaxDepth = maxDepth(g, root)
	return s
}

func maxDepth(g *Graph, root NodeID) int {
	if !g.valid(root) {
		return 0
	}
	depth := make([]int, len(g.nodes))
	for i := range depth {
		depth[i] = -1
	}
	depth[root] = 0
	queue := []NodeID{root}
	deepest := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range g.outgoing[id] {
			if depth[child] >= 0 {
				continue
			}
			depth[child] = depth[id] + 1
			deepest = max(deepest, depth[child])
			queue = append(queue, child)
		}
	}
	return deepest
}
