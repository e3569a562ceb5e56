// Package manifest reads the direct dependencies of a local Cargo package.
//
// [ParseCargo] turns a Cargo.toml into registry dependency rows that
// [deps.Resolver.ResolveManifest] can use as the rows of a virtual root.
// Entries that do not come from the registry (path, git, workspace
// inheritance) have no version requirement to resolve and are reported in
// [Manifest.Skipped] instead.
//
// [deps.Resolver.ResolveManifest]: github.com/matzehuels/cratedeps/pkg/deps.Resolver.ResolveManifest
package manifest

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Manifest is the registry-relevant part of a Cargo.toml.
type Manifest struct {
	Name         string
	Version      string // empty when inherited from a workspace
	Dependencies []registry.Dependency
	Skipped      []Skipped
}

// Skipped is a dependency entry that cannot be resolved against a registry.
type Skipped struct {
	Name   string
	Kind   registry.Kind
	Reason string
}

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
	} `toml:"package"`
	Dependencies      map[string]any         `toml:"dependencies"`
	DevDependencies   map[string]any         `toml:"dev-dependencies"`
	BuildDependencies map[string]any         `toml:"build-dependencies"`
	Target            map[string]cargoTarget `toml:"target"`
}

type cargoTarget struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

// ParseCargo reads and parses the Cargo.toml at path.
func ParseCargo(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseCargoBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseCargoBytes parses Cargo.toml content.
//
// Rows come out grouped by section ([dependencies], [build-dependencies],
// [dev-dependencies], then each [target.*] table in name order) and sorted
// by name within a section. A renamed dependency (`foo = { package = "bar" }`)
// is reported under the published name "bar".
func ParseCargoBytes(data []byte) (*Manifest, error) {
	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, err
	}
	if cargo.Package.Name == "" {
		return nil, fmt.Errorf("no [package] name; virtual workspace manifests are not supported")
	}

	m := &Manifest{Name: cargo.Package.Name}
	if v, ok := cargo.Package.Version.(string); ok {
		m.Version = v
	}

	m.addSection(cargo.Dependencies, registry.KindNormal)
	m.addSection(cargo.BuildDependencies, registry.KindBuild)
	m.addSection(cargo.DevDependencies, registry.KindDev)
	for _, name := range slices.Sorted(maps.Keys(cargo.Target)) {
		t := cargo.Target[name]
		m.addSection(t.Dependencies, registry.KindNormal)
		m.addSection(t.BuildDependencies, registry.KindBuild)
		m.addSection(t.DevDependencies, registry.KindDev)
	}
	return m, nil
}

func (m *Manifest) addSection(section map[string]any, kind registry.Kind) {
	for _, name := range slices.Sorted(maps.Keys(section)) {
		d, reason := parseEntry(name, section[name], kind)
		if reason != "" {
			m.Skipped = append(m.Skipped, Skipped{Name: name, Kind: kind, Reason: reason})
			continue
		}
		m.Dependencies = append(m.Dependencies, d)
	}
}

func parseEntry(name string, raw any, kind registry.Kind) (registry.Dependency, string) {
	d := registry.Dependency{Crate: name, Kind: kind}
	switch v := raw.(type) {
	case string:
		d.Requirement = v
		return d, ""
	case map[string]any:
		if pkg, ok := v["package"].(string); ok && pkg != "" {
			d.Crate = pkg
		}
		if opt, _ := v["optional"].(bool); opt {
			d.Kind = registry.KindOptional
		}
		if req, ok := v["version"].(string); ok && req != "" {
			d.Requirement = req
			return d, ""
		}
		switch {
		case v["workspace"] == true:
			return d, "inherited from workspace"
		case v["path"] != nil:
			return d, "path dependency"
		case v["git"] != nil:
			return d, "git dependency"
		}
		return d, "no version requirement"
	}
	return d, fmt.Sprintf("unsupported entry type %T", raw)
}
