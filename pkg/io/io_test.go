package io

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

func sampleResult(t *testing.T) *deps.Result {
	t.Helper()
	mem := registry.NewMemory("")
	mem.Add("a", "1.0.0",
		registry.Dependency{Crate: "b", Requirement: "^1"},
		registry.Dependency{Crate: "c", Requirement: "^1"},
		registry.Dependency{Crate: "gone", Requirement: "^1"},
	)
	mem.Add("b", "1.2.0", registry.Dependency{Crate: "c", Requirement: "^2"})
	mem.Add("c", "1.0.0")
	mem.Add("c", "2.0.1")

	res, err := deps.NewResolver(mem, deps.Options{}).Resolve(context.Background(), "a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return res
}

func TestJSONRoundTrip(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	if err := WriteJSON(res, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"label": "a - 1.0.0"`) {
		t.Errorf("output missing root label:\n%s", buf.String())
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if back.ID != res.ID || back.Root != res.Root {
		t.Errorf("id/root = %s/%d, want %s/%d", back.ID, back.Root, res.ID, res.Root)
	}
	if back.Graph.NodeCount() != res.Graph.NodeCount() || back.Graph.EdgeCount() != res.Graph.EdgeCount() {
		t.Errorf("counts = %d/%d, want %d/%d",
			back.Graph.NodeCount(), back.Graph.EdgeCount(), res.Graph.NodeCount(), res.Graph.EdgeCount())
	}
	for _, n := range res.Graph.Nodes() {
		got, ok := back.Graph.Node(n.ID)
		if !ok || got != n {
			t.Errorf("node %d = %+v, want %+v", n.ID, got, n)
		}
	}
	if !back.Graph.Frozen() {
		t.Error("imported graph should be frozen")
	}
	if len(back.Issues) != 1 || back.Issues[0].Code != errors.ErrCodeNoCompatibleVersion || back.Issues[0].Crate != "gone" {
		t.Errorf("issues = %+v", back.Issues)
	}
	if back.Issues[0].Message() != res.Issues[0].Message() {
		t.Errorf("message = %q, want %q", back.Issues[0].Message(), res.Issues[0].Message())
	}
}

func TestReadJSONRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"malformed":      `{"nodes": [`,
		"sparse ids":     `{"nodes":[{"id":1,"crate":"a","version":"1.0.0"}]}`,
		"bad version":    `{"nodes":[{"id":0,"crate":"a","version":"latest"}]}`,
		"duplicate node": `{"nodes":[{"id":0,"crate":"a","version":"1.0.0"},{"id":1,"crate":"a","version":"1.0.0"}]}`,
		"unknown target": `{"nodes":[{"id":0,"crate":"a","version":"1.0.0"}],"edges":[{"from":0,"to":3}]}`,
		"duplicate edge": `{"nodes":[{"id":0,"crate":"a","version":"1.0.0"},{"id":1,"crate":"b","version":"1.0.0"}],"edges":[{"from":0,"to":1},{"from":0,"to":1}]}`,
		"bad root":       `{"root":4,"nodes":[{"id":0,"crate":"a","version":"1.0.0"}]}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestJSONRoundTripStable(t *testing.T) {
	var first bytes.Buffer
	if err := WriteJSON(sampleResult(t), &first); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	back, err := ReadJSON(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	var second bytes.Buffer
	if err := WriteJSON(back, &second); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("re-encoded document differs:\n%s\n---\n%s", first.String(), second.String())
	}
	if !errors.Is(back.Issues[0].Err, errors.ErrCodeNoCompatibleVersion) {
		t.Errorf("issue error lost its code: %v", back.Issues[0].Err)
	}
}

func TestIssueError(t *testing.T) {
	tests := []struct {
		code errors.Code
		msg  string
	}{
		{errors.ErrCodeNoCompatibleVersion, "NO_COMPATIBLE_VERSION: no version of x matches requirement \"^9\""},
		{errors.ErrCodeRegistry, "REGISTRY_ERROR: fetch x: boom"},
		{errors.ErrCodeDepthExceeded, "depth limit reached"},
	}
	for _, tt := range tests {
		if got := issueError(tt.code, tt.msg).Error(); got != tt.msg {
			t.Errorf("issueError(%s, %q) = %q", tt.code, tt.msg, got)
		}
	}
}

func TestToDOT(t *testing.T) {
	res := sampleResult(t)
	dot := ToDOT(res.Graph, DOTOptions{Root: res.Root, HighlightRoot: true, MarkDuplicates: true})

	for _, want := range []string{
		"digraph G {",
		`"a - 1.0.0" [penwidth=2`,
		`"c - 1.0.0" [fillcolor="#fef3c7"]`,
		`"c - 2.0.1" [fillcolor="#fef3c7"]`,
		`"b - 1.2.0";`,
		`"a - 1.0.0" -> "b - 1.2.0";`,
		`"b - 1.2.0" -> "c - 2.0.1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	plain := ToDOT(res.Graph, DOTOptions{})
	if strings.Contains(plain, "fillcolor=\"#") {
		t.Errorf("plain DOT should not carry highlights:\n%s", plain)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}

	untouched := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(untouched); !bytes.Equal(got, untouched) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), "digraph G { \"a - 1.0.0\" -> \"b - 1.0.0\"; }")
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("a &#45; 1.0.0")) ||
		!bytes.Contains(svg, []byte(`class="node"`)) {
		t.Errorf("unexpected SVG output:\n%s", svg)
	}
}
