package deps

import (
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
)

// Result is the outcome of one resolution.
type Result struct {
	ID     string       // Resolution id, also attached to log lines
	Root   graph.NodeID // Root node
	Graph  *graph.Graph // Frozen dependency graph
	Issues []Issue      // Recoverable failures in traversal order
}

// Issue records one recoverable failure. From is the label of the node
// being expanded; Crate and Requirement describe the row that failed and
// are empty for branch-level issues such as DEPTH_EXCEEDED.
type Issue struct {
	Code        errors.Code
	From        string
	Crate       string
	Requirement string
	Depth       int
	Err         error
}

// Message returns the human-readable cause.
func (i Issue) Message() string {
	if i.Err == nil {
		return string(i.Code)
	}
	return i.Err.Error()
}

// IssueCounts tallies issues by code.
func (r *Result) IssueCounts() map[errors.Code]int {
	counts := make(map[errors.Code]int)
	for _, is := range r.Issues {
		counts[is.Code]++
	}
	return counts
}

// SkippedEdges counts rows that did not become edges.
func (r *Result) SkippedEdges() int {
	n := 0
	for _, is := range r.Issues {
		if is.Crate != "" {
			n++
		}
	}
	return n
}
