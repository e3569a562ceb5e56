package deps

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/cratedeps/pkg/errors"
)

// hyphenRange matches a "-" with whitespace on either side, as in
// "1.2 - 1.3". Cargo has no hyphen ranges.
var hyphenRange = regexp.MustCompile(`\s-|-\s`)

// NormalizeRequirement strips all whitespace from req and applies Cargo's
// default operator: a comparator written as a bare version ("1.2",
// ">=1, 2") means a caret range. A bare wildcard ("1.2.*", "1.x") becomes
// the tilde range over its fixed components.
func NormalizeRequirement(req string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, req)

	parts := strings.Split(compact, ",")
	for i, p := range parts {
		if p == "" || p[0] < '0' || p[0] > '9' {
			continue
		}
		if fixed, ok := wildcardPrefix(p); ok {
			parts[i] = "~" + fixed
		} else {
			parts[i] = "^" + p
		}
	}
	return strings.Join(parts, ",")
}

// wildcardPrefix splits "1.2.*" into "1.2". It reports false when p has no
// wildcard component or a fixed component follows one.
func wildcardPrefix(p string) (string, bool) {
	fields := strings.Split(p, ".")
	n := 0
	for n < len(fields) && !isWildcard(fields[n]) {
		n++
	}
	if n == len(fields) || n == 0 {
		return "", false
	}
	for _, f := range fields[n:] {
		if !isWildcard(f) {
			return "", false
		}
	}
	return strings.Join(fields[:n], "."), true
}

func isWildcard(f string) bool {
	return f == "*" || f == "x" || f == "X"
}

// ParseRequirement normalizes and parses req. A requirement that cannot be
// parsed fails with ErrCodeMalformedRequirement.
func ParseRequirement(req string) (*semver.Constraints, error) {
	if hyphenRange.MatchString(req) {
		return nil, errors.New(errors.ErrCodeMalformedRequirement, "hyphen ranges are not supported: %q", req)
	}
	normalized := NormalizeRequirement(req)
	if normalized == "" {
		return nil, errors.New(errors.ErrCodeMalformedRequirement, "empty version requirement")
	}
	c, err := semver.NewConstraint(normalized)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedRequirement, err, "could not parse version requirement %q", req)
	}
	return c, nil
}

// SelectVersion returns the highest candidate satisfying req.
//
// Pre-release candidates are eligible only when req itself names a
// pre-release. Fails with ErrCodeMalformedRequirement if req does not parse
// and ErrCodeNoCompatibleVersion if nothing matches.
func SelectVersion(crate, req string, candidates []*semver.Version) (*semver.Version, error) {
	c, err := ParseRequirement(req)
	if err != nil {
		return nil, err
	}
	return selectMatching(crate, req, c, candidates)
}

func selectMatching(crate, req string, c *semver.Constraints, candidates []*semver.Version) (*semver.Version, error) {
	var best *semver.Version
	for _, v := range candidates {
		if !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return nil, errors.New(errors.ErrCodeNoCompatibleVersion,
			"no version of %s matches requirement %q", crate, req)
	}
	return best, nil
}
