package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
)

// Document is the JSON shape of a resolution result.
type Document struct {
	ID     string  `json:"id"`
	Root   int     `json:"root"`
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Issues []Issue `json:"issues"`
}

// Node is one graph node.
type Node struct {
	ID      int    `json:"id"`
	Crate   string `json:"crate"`
	Version string `json:"version"`
	Label   string `json:"label,omitempty"`
}

// Edge references nodes by id.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Issue is a recoverable resolution failure.
type Issue struct {
	Code        string `json:"code"`
	From        string `json:"from,omitempty"`
	Crate       string `json:"crate,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	Depth       int    `json:"depth"`
	Message     string `json:"message"`
}

// NewDocument converts res to its JSON shape.
func NewDocument(res *deps.Result) Document {
	g := res.Graph
	doc := Document{
		ID:     res.ID,
		Root:   int(res.Root),
		Nodes:  make([]Node, 0, g.NodeCount()),
		Edges:  make([]Edge, 0, g.EdgeCount()),
		Issues: make([]Issue, 0, len(res.Issues)),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, Node{ID: int(n.ID), Crate: n.Crate, Version: n.Version, Label: n.Label()})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{From: int(e.From), To: int(e.To)})
	}
	for _, is := range res.Issues {
		doc.Issues = append(doc.Issues, Issue{
			Code:        string(is.Code),
			From:        is.From,
			Crate:       is.Crate,
			Requirement: is.Requirement,
			Depth:       is.Depth,
			Message:     is.Message(),
		})
	}
	return doc
}

// WriteJSON encodes res as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(res *deps.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a document written by [WriteJSON] into a frozen result.
//
// ReadJSON returns an error if the JSON is malformed, node ids are not
// 0..n-1 in order, a version is not semver, a (crate, version) pair repeats,
// or an edge references an unknown node or repeats.
func ReadJSON(r io.Reader) (*deps.Result, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.Result()
}

// Result rebuilds the resolution result described by doc.
func (doc Document) Result() (*deps.Result, error) {
	g := graph.New()
	store := graph.NewNodeStore()
	for i, n := range doc.Nodes {
		if n.ID != i {
			return nil, fmt.Errorf("node %d: ids must be dense and ordered, got %d", i, n.ID)
		}
		v, err := semver.NewVersion(n.Version)
		if err != nil {
			return nil, fmt.Errorf("node %d: version %q: %w", n.ID, n.Version, err)
		}
		if _, dup := store.Lookup(n.Crate, v); dup {
			return nil, fmt.Errorf("node %d: duplicate %s", n.ID, graph.Label(n.Crate, n.Version))
		}
		store.Ensure(g, n.Crate, v)
	}
	for _, e := range doc.Edges {
		added, err := g.AddEdge(graph.NodeID(e.From), graph.NodeID(e.To))
		if err != nil {
			return nil, fmt.Errorf("edge %d->%d: %w", e.From, e.To, err)
		}
		if !added {
			return nil, fmt.Errorf("edge %d->%d: duplicate", e.From, e.To)
		}
	}
	if len(doc.Nodes) > 0 && (doc.Root < 0 || doc.Root >= len(doc.Nodes)) {
		return nil, fmt.Errorf("root %d: unknown node", doc.Root)
	}
	g.Freeze()

	res := &deps.Result{ID: doc.ID, Root: graph.NodeID(doc.Root), Graph: g}
	for _, is := range doc.Issues {
		code := errors.Code(is.Code)
		res.Issues = append(res.Issues, deps.Issue{
			Code:        code,
			From:        is.From,
			Crate:       is.Crate,
			Requirement: is.Requirement,
			Depth:       is.Depth,
			Err:         issueError(code, is.Message),
		})
	}
	return res, nil
}

// issueError rebuilds an issue's error so that its Error text equals msg.
func issueError(code errors.Code, msg string) error {
	if rest, ok := strings.CutPrefix(msg, string(code)+": "); ok {
		return errors.New(code, "%s", rest)
	}
	return stderrors.New(msg)
}
