package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"normal", KindNormal, false},
		{"BUILD", KindBuild, false},
		{" dev ", KindDev, false},
		{"optional", KindOptional, false},
		{"runtime", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindFromCode(t *testing.T) {
	tests := []struct {
		code     int
		optional bool
		want     Kind
		wantErr  bool
	}{
		{0, false, KindNormal, false},
		{1, false, KindBuild, false},
		{2, false, KindDev, false},
		{0, true, KindOptional, false},
		{2, true, KindOptional, false},
		{7, false, 0, true},
	}
	for _, tt := range tests {
		got, err := KindFromCode(tt.code, tt.optional)
		if (err != nil) != tt.wantErr {
			t.Errorf("KindFromCode(%d, %v) error = %v", tt.code, tt.optional, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("KindFromCode(%d, %v) = %v, want %v", tt.code, tt.optional, got, tt.want)
		}
	}
}

func TestKindSet(t *testing.T) {
	if !DefaultKinds.Has(KindNormal) || !DefaultKinds.Has(KindBuild) {
		t.Error("DefaultKinds should contain normal and build")
	}
	if DefaultKinds.Has(KindDev) || DefaultKinds.Has(KindOptional) {
		t.Error("DefaultKinds should exclude dev and optional")
	}
	if DefaultKinds.String() != "normal,build" {
		t.Errorf("DefaultKinds.String() = %q", DefaultKinds.String())
	}

	set, err := ParseKinds("dev, normal")
	if err != nil {
		t.Fatalf("ParseKinds: %v", err)
	}
	if set != NewKindSet(KindNormal, KindDev) {
		t.Errorf("ParseKinds = %v", set)
	}

	if set, _ := ParseKinds(""); set != DefaultKinds {
		t.Errorf("empty ParseKinds = %v, want default", set)
	}
	if _, err := ParseKinds("normal,peer"); err == nil {
		t.Error("ParseKinds should reject unknown kinds")
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")
	m.Add("a", "1.0.0", Dependency{Crate: "b", Requirement: "^1"})
	m.Add("a", "1.1.0")
	m.AddCrate("empty")

	if m.Name() != "memory" {
		t.Errorf("Name() = %q", m.Name())
	}

	versions, err := m.ListVersions(ctx, "a")
	if err != nil || len(versions) != 2 || versions[0] != "1.0.0" {
		t.Fatalf("ListVersions(a) = %v, %v", versions, err)
	}

	versions, err = m.ListVersions(ctx, "empty")
	if err != nil || len(versions) != 0 {
		t.Errorf("ListVersions(empty) = %v, %v; want empty, nil", versions, err)
	}

	if _, err := m.ListVersions(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListVersions(missing) err = %v, want ErrNotFound", err)
	}

	deps, err := m.ListDependencies(ctx, "a", "1.0.0")
	if err != nil || len(deps) != 1 || deps[0].Crate != "b" {
		t.Errorf("ListDependencies = %v, %v", deps, err)
	}
	if _, err := m.ListDependencies(ctx, "a", "9.9.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown version err = %v, want ErrNotFound", err)
	}
}

func TestMemoryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory("m")
	m.Add("a", "1.0.0")
	if _, err := m.ListVersions(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

const fixtureTOML = `
name = "offline"

[[crate]]
name = "a"

  [[crate.version]]
  num = "1.0.0"
  deps = [
    { name = "b", req = "^1.0" },
    { name = "cc", req = "^1", kind = "build" },
    { name = "criterion", req = "0.5", kind = "dev" },
  ]

[[crate]]
name = "b"

  [[crate.version]]
  num = "1.0.0"

[[crate]]
name = "yanked-everything"
`

func TestParseFixture(t *testing.T) {
	ctx := context.Background()
	m, err := ParseFixture([]byte(fixtureTOML))
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	if m.Name() != "offline" {
		t.Errorf("Name() = %q", m.Name())
	}

	deps, err := m.ListDependencies(ctx, "a", "1.0.0")
	if err != nil {
		t.Fatalf("ListDependencies: %v", err)
	}
	want := []Dependency{
		{Crate: "b", Requirement: "^1.0", Kind: KindNormal},
		{Crate: "cc", Requirement: "^1", Kind: KindBuild},
		{Crate: "criterion", Requirement: "0.5", Kind: KindDev},
	}
	if len(deps) != len(want) {
		t.Fatalf("deps = %v, want %v", deps, want)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("deps[%d] = %+v, want %+v", i, deps[i], want[i])
		}
	}

	if versions, err := m.ListVersions(ctx, "yanked-everything"); err != nil || len(versions) != 0 {
		t.Errorf("crate without versions = %v, %v", versions, err)
	}
}

func TestParseFixtureErrors(t *testing.T) {
	bad := map[string]string{
		"syntax":       "[[crate]\nname=",
		"unnamed":      "[[crate]]\n",
		"no num":       "[[crate]]\nname = \"a\"\n[[crate.version]]\n",
		"unknown kind": "[[crate]]\nname = \"a\"\n[[crate.version]]\nnum = \"1.0.0\"\ndeps = [{ name = \"b\", req = \"1\", kind = \"peer\" }]\n",
	}
	for name, data := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFixture([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.toml")
	if err := os.WriteFile(path, []byte(fixtureTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFixture of missing file should fail")
	}
}

type countingRegistry struct {
	Registry
	versionCalls int
	depCalls     int
}

func (c *countingRegistry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	c.versionCalls++
	return c.Registry.ListVersions(ctx, crate)
}

func (c *countingRegistry) ListDependencies(ctx context.Context, crate, version string) ([]Dependency, error) {
	c.depCalls++
	return c.Registry.ListDependencies(ctx, crate, version)
}

func TestCachedRegistry(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory("mem")
	mem.Add("a", "1.0.0", Dependency{Crate: "b", Requirement: "^1", Kind: KindBuild})
	inner := &countingRegistry{Registry: mem}

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := Cached(inner, fc, time.Hour)

	for range 3 {
		if _, err := r.ListVersions(ctx, "a"); err != nil {
			t.Fatalf("ListVersions: %v", err)
		}
		deps, err := r.ListDependencies(ctx, "a", "1.0.0")
		if err != nil {
			t.Fatalf("ListDependencies: %v", err)
		}
		if len(deps) != 1 || deps[0].Kind != KindBuild {
			t.Fatalf("deps = %+v", deps)
		}
	}
	if inner.versionCalls != 1 || inner.depCalls != 1 {
		t.Errorf("inner calls = %d/%d, want 1/1", inner.versionCalls, inner.depCalls)
	}
	if r.Name() != "mem" || r.Unwrap() != inner {
		t.Error("Name/Unwrap should expose the wrapped registry")
	}
}

func TestCachedRegistryDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingRegistry{Registry: NewMemory("mem")}
	fc, _ := cache.NewFileCache(t.TempDir())
	r := Cached(inner, fc, time.Hour)

	for range 2 {
		if _, err := r.ListVersions(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if inner.versionCalls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.versionCalls)
	}
}

func TestCachedRegistryRefresh(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory("mem")
	mem.Add("a", "1.0.0")
	inner := &countingRegistry{Registry: mem}
	fc, _ := cache.NewFileCache(t.TempDir())

	warm := Cached(inner, fc, time.Hour)
	warm.ListVersions(ctx, "a")

	fresh := Cached(inner, fc, time.Hour, WithRefresh(true))
	fresh.ListVersions(ctx, "a")

	if inner.versionCalls != 2 {
		t.Errorf("refresh should bypass cache reads, inner calls = %d", inner.versionCalls)
	}
}
