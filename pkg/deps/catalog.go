package deps

import (
	"context"
	stderrors "errors"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Catalog answers "which versions exist" and "which is newest" for a crate.
type Catalog struct {
	reg registry.Registry
}

// NewCatalog wraps reg.
func NewCatalog(reg registry.Registry) *Catalog {
	return &Catalog{reg: reg}
}

// ListVersions returns the crate's versions in ascending precedence.
// Strings that are not valid semantic versions are dropped, and versions
// that differ only in build metadata collapse to the first one listed.
//
// Fails with ErrCodeNotFound for an unknown crate and ErrCodeNoVersions
// when nothing usable is published.
func (c *Catalog) ListVersions(ctx context.Context, crate string) ([]*semver.Version, error) {
	raw, err := c.reg.ListVersions(ctx, crate)
	if err != nil {
		return nil, classifyRegistryError(err, "list versions of %s", crate)
	}

	versions := make([]*semver.Version, 0, len(raw))
	for _, s := range raw {
		v, err := semver.StrictNewVersion(s)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return nil, errors.New(errors.ErrCodeNoVersions, "crate %s has no published versions", crate)
	}

	slices.SortStableFunc(versions, func(a, b *semver.Version) int { return a.Compare(b) })
	versions = slices.CompactFunc(versions, func(a, b *semver.Version) bool { return a.Equal(b) })
	return versions, nil
}

// LatestVersion returns the highest version by precedence, pre-releases
// included. It propagates ListVersions errors.
func (c *Catalog) LatestVersion(ctx context.Context, crate string) (*semver.Version, error) {
	versions, err := c.ListVersions(ctx, crate)
	if err != nil {
		return nil, err
	}
	return versions[len(versions)-1], nil
}

// classifyRegistryError attaches a code to a registry failure. Context
// errors pass through untouched so callers can tell cancellation apart.
func classifyRegistryError(err error, format string, args ...any) error {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, registry.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, format, args...)
	default:
		return errors.Wrap(errors.ErrCodeRegistry, err, format, args...)
	}
}
