package io

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cratedeps/pkg/graph"
)

// DOTOptions configures DOT generation.
type DOTOptions struct {
	// Root is filled and drawn bold when HighlightRoot is set.
	Root          graph.NodeID
	HighlightRoot bool

	// MarkDuplicates fills crates that appear at more than one version.
	MarkDuplicates bool
}

// ToDOT converts g to Graphviz DOT. Node names are the "crate - version"
// labels, so the output reads the same without a renderer.
func ToDOT(g *graph.Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	perCrate := make(map[string]int)
	if opts.MarkDuplicates {
		for _, n := range g.Nodes() {
			perCrate[n.Crate]++
		}
	}

	for _, n := range g.Nodes() {
		var attrs string
		switch {
		case opts.HighlightRoot && n.ID == opts.Root:
			attrs = ` [penwidth=2, fillcolor="#dbeafe"]`
		case perCrate[n.Crate] > 1:
			attrs = ` [fillcolor="#fef3c7"]`
		}
		fmt.Fprintf(&buf, "  %q%s;\n", n.Label(), attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		fmt.Fprintf(&buf, "  %q -> %q;\n", from.Label(), to.Label())
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out a DOT graph and renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
