package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Kind classifies a dependency declaration.
type Kind int

const (
	KindNormal Kind = iota
	KindBuild
	KindDev
	KindOptional
)

var kindNames = [...]string{"normal", "build", "dev", "optional"}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses a kind name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	i := slices.Index(kindNames[:], strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return 0, fmt.Errorf("unknown dependency kind %q (want one of %s)", s, strings.Join(kindNames[:], ", "))
	}
	return Kind(i), nil
}

// KindFromCode maps the crates.io database encoding to a Kind.
// The dump stores kind as 0 normal, 1 build, 2 dev, with optional as a
// separate flag; an optional dependency is reported as KindOptional
// whatever its code.
func KindFromCode(code int, optional bool) (Kind, error) {
	if optional {
		return KindOptional, nil
	}
	switch code {
	case 0:
		return KindNormal, nil
	case 1:
		return KindBuild, nil
	case 2:
		return KindDev, nil
	}
	return 0, fmt.Errorf("unknown dependency kind code %d", code)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KindSet is the set of dependency kinds that participate in traversal.
type KindSet uint8

// DefaultKinds is the traversal policy used when none is configured.
const DefaultKinds = KindSet(1<<KindNormal | 1<<KindBuild)

// NewKindSet builds a set from kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// ParseKinds parses a comma-separated kind list such as "normal,build".
// An empty string yields DefaultKinds.
func ParseKinds(s string) (KindSet, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultKinds, nil
	}
	var set KindSet
	for _, part := range strings.Split(s, ",") {
		k, err := ParseKind(part)
		if err != nil {
			return 0, err
		}
		set |= 1 << k
	}
	return set, nil
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool { return k >= 0 && s&(1<<k) != 0 }

// Kinds lists the members in declaration order.
func (s KindSet) Kinds() []Kind {
	var out []Kind
	for k := KindNormal; k <= KindOptional; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Strings lists member names in declaration order.
func (s KindSet) Strings() []string {
	var out []string
	for _, k := range s.Kinds() {
		out = append(out, k.String())
	}
	return out
}

// String joins member names with commas.
func (s KindSet) String() string { return strings.Join(s.Strings(), ",") }
