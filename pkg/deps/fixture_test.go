package deps_test

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
	"github.com/matzehuels/cratedeps/pkg/manifest"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

func loadExampleRegistry(t *testing.T) *registry.Memory {
	t.Helper()
	reg, err := registry.LoadFixture("../../examples/fixture.toml")
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	return reg
}

func sortedLabels(g *graph.Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.Label())
	}
	slices.Sort(out)
	return out
}

func TestExampleFixture(t *testing.T) {
	reg := loadExampleRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		kinds  registry.KindSet
		pin    string
		nodes  []string
		edges  int
		issues []errors.Code
	}{
		{
			name: "default kinds",
			nodes: []string{
				"app - 1.0.0", "cc - 1.1.6", "itoa - 1.0.11", "log - 0.4.22",
				"serde - 1.0.200", "serde_json - 1.0.120",
			},
			edges: 6,
		},
		{
			name:  "all kinds",
			kinds: registry.NewKindSet(registry.KindNormal, registry.KindBuild, registry.KindDev, registry.KindOptional),
			nodes: []string{
				"app - 1.0.0", "cc - 1.1.6", "criterion - 0.5.1", "itoa - 1.0.11", "log - 0.4.22",
				"serde - 1.0.200", "serde_derive - 1.0.200", "serde_json - 1.0.120",
			},
			edges:  9,
			issues: []errors.Code{errors.ErrCodeNoCompatibleVersion},
		},
		{
			name:  "pinned old root",
			pin:   "0.9.0",
			nodes: []string{"app - 0.9.0", "serde - 1.0.200"},
			edges: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := deps.NewResolver(reg, deps.Options{Kinds: tt.kinds})
			var (
				res *deps.Result
				err error
			)
			if tt.pin != "" {
				res, err = r.ResolveVersion(ctx, "app", tt.pin)
			} else {
				res, err = r.Resolve(ctx, "app")
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got := sortedLabels(res.Graph); !slices.Equal(got, tt.nodes) {
				t.Errorf("nodes = %v, want %v", got, tt.nodes)
			}
			if res.Graph.EdgeCount() != tt.edges {
				t.Errorf("edges = %d, want %d", res.Graph.EdgeCount(), tt.edges)
			}
			var codes []errors.Code
			for _, is := range res.Issues {
				codes = append(codes, is.Code)
			}
			if !slices.Equal(codes, tt.issues) {
				t.Errorf("issues = %v, want %v", codes, tt.issues)
			}
		})
	}
}

func TestExampleManifest(t *testing.T) {
	reg := loadExampleRegistry(t)
	m, err := manifest.ParseCargo("../../examples/Cargo.toml")
	if err != nil {
		t.Fatalf("ParseCargo: %v", err)
	}
	if len(m.Skipped) != 1 || m.Skipped[0].Name != "local-util" {
		t.Errorf("skipped = %+v", m.Skipped)
	}

	res, err := deps.NewResolver(reg, deps.Options{}).ResolveManifest(context.Background(), m.Name, m.Version, m.Dependencies)
	if err != nil {
		t.Fatalf("ResolveManifest: %v", err)
	}
	want := []string{
		"cc - 1.1.6", "example-local - 0.1.0", "itoa - 1.0.11",
		"serde - 1.0.200", "serde_json - 1.0.120",
	}
	if got := sortedLabels(res.Graph); !slices.Equal(got, want) {
		t.Errorf("nodes = %v, want %v", got, want)
	}
	if res.Graph.EdgeCount() != 5 || len(res.Issues) != 0 {
		t.Errorf("edges = %d, issues = %v", res.Graph.EdgeCount(), res.Issues)
	}
}
