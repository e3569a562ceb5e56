package registry

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// fixtureFile is the TOML layout read by LoadFixture:
//
//	name = "offline"
//
//	[[crate]]
//	name = "a"
//
//	  [[crate.version]]
//	  num = "1.0.0"
//	  deps = [
//	    { name = "b", req = "^1.0" },
//	    { name = "cc", req = "^1", kind = "build" },
//	  ]
type fixtureFile struct {
	Name   string         `toml:"name"`
	Crates []fixtureCrate `toml:"crate"`
}

type fixtureCrate struct {
	Name     string           `toml:"name"`
	Versions []fixtureVersion `toml:"version"`
}

type fixtureVersion struct {
	Num  string       `toml:"num"`
	Deps []Dependency `toml:"deps"`
}

// LoadFixture reads a TOML fixture file into a Memory registry.
// Dependencies without an explicit kind are normal.
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture TOML from memory.
func ParseFixture(data []byte) (*Memory, error) {
	var f fixtureFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}

	m := NewMemory(f.Name)
	for _, c := range f.Crates {
		if c.Name == "" {
			return nil, fmt.Errorf("fixture: crate without name")
		}
		m.AddCrate(c.Name)
		for _, v := range c.Versions {
			if v.Num == "" {
				return nil, fmt.Errorf("fixture: crate %s has a version without num", c.Name)
			}
			m.Add(c.Name, v.Num, v.Deps...)
		}
	}
	return m, nil
}
