package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/manifest"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

func testRegistry() *registry.Memory {
	reg := registry.NewMemory("test")
	reg.Add("app", "1.0.0",
		registry.Dependency{Crate: "serde", Requirement: "^1"},
		registry.Dependency{Crate: "missing", Requirement: "^1"},
	)
	reg.Add("serde", "1.0.100")
	reg.Add("serde", "1.0.200")
	return reg
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOptionsValidate(t *testing.T) {
	m := &manifest.Manifest{Name: "local"}
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"crate", Options{Crate: "serde"}, ""},
		{"pinned", Options{Crate: "serde", Version: "1.0.0"}, ""},
		{"manifest", Options{Manifest: m}, ""},
		{"nothing", Options{}, errors.ErrCodeInvalidInput},
		{"both", Options{Crate: "serde", Manifest: m}, errors.ErrCodeInvalidInput},
		{"manifest version", Options{Manifest: m, Version: "1.0.0"}, errors.ErrCodeInvalidInput},
		{"bad crate", Options{Crate: "9lives"}, errors.ErrCodeInvalidCrate},
		{"negative depth", Options{Crate: "serde", MaxDepth: -1}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"SVG", false},
		{"png", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestResolveCaching(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	reg := testRegistry()

	res, hit, err := r.ResolveWithCacheInfo(ctx, reg, Options{Crate: "app"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if hit {
		t.Error("first resolution should miss the cache")
	}
	if res.Graph.NodeCount() != 2 || len(res.Issues) != 1 {
		t.Fatalf("got %d nodes, %d issues", res.Graph.NodeCount(), len(res.Issues))
	}

	// A newer serde is invisible until the cache is refreshed.
	reg.Add("serde", "1.0.300")

	cached, hit, err := r.ResolveWithCacheInfo(ctx, reg, Options{Crate: "app"})
	if err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}
	if !hit {
		t.Error("second resolution should hit the cache")
	}
	if cached.ID != res.ID {
		t.Errorf("cached ID = %s, want %s", cached.ID, res.ID)
	}
	if _, ok := cached.Graph.Lookup("serde", "1.0.200"); !ok {
		t.Error("cached graph lost serde 1.0.200")
	}
	if len(cached.Issues) != 1 || cached.Issues[0].Code != errors.ErrCodeNoCompatibleVersion {
		t.Errorf("cached issues = %+v", cached.Issues)
	}

	fresh, hit, err := r.ResolveWithCacheInfo(ctx, reg, Options{Crate: "app", Refresh: true})
	if err != nil {
		t.Fatalf("Resolve (refresh): %v", err)
	}
	if hit {
		t.Error("refresh should not report a cache hit")
	}
	if _, ok := fresh.Graph.Lookup("serde", "1.0.300"); !ok {
		t.Error("refresh should see serde 1.0.300")
	}

	// Different options are a different graph.
	_, hit, err = r.ResolveWithCacheInfo(ctx, reg, Options{Crate: "app", MaxDepth: 1})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("different max depth should miss the cache")
	}
}

func TestResolvePinnedAndErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, log.New(io.Discard))
	reg := testRegistry()

	res, err := r.Resolve(ctx, reg, Options{Crate: "serde", Version: "1.0.100"})
	if err != nil {
		t.Fatalf("Resolve pinned: %v", err)
	}
	root, _ := res.Graph.Node(res.Root)
	if root.Version != "1.0.100" {
		t.Errorf("root version = %s", root.Version)
	}

	if _, err := r.Resolve(ctx, reg, Options{Crate: "nope"}); !errors.Is(err, errors.ErrCodeRootNotFound) {
		t.Errorf("unknown crate err = %v, want ROOT_NOT_FOUND", err)
	}
	if _, err := r.Resolve(ctx, reg, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty options err = %v, want INVALID_INPUT", err)
	}
}

func TestResolveManifest(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	reg := testRegistry()

	m := &manifest.Manifest{
		Name:         "local",
		Dependencies: []registry.Dependency{{Crate: "serde", Requirement: "1.0.100"}},
	}
	res, hit, err := r.ResolveWithCacheInfo(ctx, reg, Options{Manifest: m})
	if err != nil {
		t.Fatalf("Resolve manifest: %v", err)
	}
	if hit {
		t.Error("first manifest resolution should miss")
	}
	if _, ok := res.Graph.Lookup("local", "0.0.0"); !ok {
		t.Error("missing virtual root local - 0.0.0")
	}
	if _, ok := res.Graph.Lookup("serde", "1.0.200"); !ok {
		t.Error("caret requirement should select serde 1.0.200")
	}

	changed := &manifest.Manifest{
		Name:         "local",
		Dependencies: []registry.Dependency{{Crate: "serde", Requirement: "=1.0.100"}},
	}
	res, hit, err = r.ResolveWithCacheInfo(ctx, reg, Options{Manifest: changed})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("changed manifest rows should miss the cache")
	}
	if _, ok := res.Graph.Lookup("serde", "1.0.100"); !ok {
		t.Error("exact requirement should select serde 1.0.100")
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, log.New(io.Discard))
	res, err := r.Resolve(ctx, testRegistry(), Options{Crate: "app"})
	if err != nil {
		t.Fatal(err)
	}

	data, err := r.Render(ctx, res, "JSON")
	if err != nil {
		t.Fatalf("Render json: %v", err)
	}
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || len(doc.Nodes) != 2 {
		t.Errorf("json render: %d nodes, err %v", len(doc.Nodes), err)
	}

	data, err = r.Render(ctx, res, FormatDOT)
	if err != nil {
		t.Fatalf("Render dot: %v", err)
	}
	if !strings.Contains(string(data), `"app - 1.0.0" -> "serde - 1.0.200"`) {
		t.Errorf("dot output missing edge:\n%s", data)
	}

	if _, err := r.Render(ctx, res, "png"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render png err = %v, want INVALID_FORMAT", err)
	}
}

func TestSummary(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	res, err := r.Resolve(context.Background(), testRegistry(), Options{Crate: "app"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Summary(res), "2 nodes, 1 edges, 1 skipped edges, depth 1"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestContentType(t *testing.T) {
	for format, want := range map[string]string{
		"json": "application/json",
		"svg":  "image/svg+xml",
		"dot":  "text/vnd.graphviz; charset=utf-8",
	} {
		if got := ContentType(format); got != want {
			t.Errorf("ContentType(%s) = %q, want %q", format, got, want)
		}
	}
}
