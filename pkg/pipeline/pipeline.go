// Package pipeline runs resolutions with graph caching and renders their
// results. The CLI and the HTTP server both go through a [Runner] so that
// they share defaults, cache keys and output formats.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, hit, err := runner.ResolveWithCacheInfo(ctx, reg, pipeline.Options{
//	    Crate:    "serde_json",
//	    MaxDepth: 10,
//	})
//	if err != nil {
//	    return err
//	}
//	svg, err := runner.Render(ctx, res, pipeline.FormatSVG)
//
// Registry responses and whole graphs are cached in the same [cache.Cache].
// Options.Refresh skips cache reads but still writes fresh entries.
package pipeline

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/manifest"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// Formats lists every supported output format.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG}

// Options selects what to resolve and how.
type Options struct {
	// Crate is resolved from the registry. Exactly one of Crate and
	// Manifest must be set.
	Crate   string
	Version string // pin the root; empty means latest

	// Manifest is resolved as a virtual root over its dependency rows.
	Manifest *manifest.Manifest

	MaxDepth int
	MaxNodes int
	Workers  int
	Kinds    registry.KindSet

	Refresh bool
	Logger  *log.Logger
}

// Validate checks the root selection and rejects negative limits. Zero
// limits take the resolver defaults.
func (o Options) Validate() error {
	if o.MaxDepth < 0 || o.MaxNodes < 0 || o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "limits must not be negative")
	}
	switch {
	case o.Crate == "" && o.Manifest == nil:
		return errors.New(errors.ErrCodeInvalidInput, "a crate or a manifest is required")
	case o.Crate != "" && o.Manifest != nil:
		return errors.New(errors.ErrCodeInvalidInput, "crate and manifest are mutually exclusive")
	case o.Manifest != nil && o.Version != "":
		return errors.New(errors.ErrCodeInvalidInput, "version cannot be pinned for a manifest")
	case o.Manifest != nil:
		return errors.ValidateCrateName(o.Manifest.Name)
	}
	return errors.ValidateCrateName(o.Crate)
}

// ResolverOptions converts o to the resolver's options.
func (o Options) ResolverOptions() deps.Options {
	return deps.Options{
		MaxDepth: o.MaxDepth,
		MaxNodes: o.MaxNodes,
		Workers:  o.Workers,
		Kinds:    o.Kinds,
		Logger:   o.Logger,
	}.WithDefaults()
}

// ValidateFormat checks that format is one of [Formats].
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, Formats...)
}

// NormalizeFormat lowercases format after validating it.
func NormalizeFormat(format string) (string, error) {
	if err := ValidateFormat(format); err != nil {
		return "", err
	}
	return strings.ToLower(format), nil
}

// ContentType returns the media type of a rendered format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return "application/json"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}
