package deps

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/registry"
)

const (
	DefaultMaxDepth = 50   // Default maximum expansion depth
	DefaultMaxNodes = 5000 // Default maximum graph size
	DefaultWorkers  = 8    // Default concurrent lookups per expansion
)

// Options configures dependency resolution behavior.
//
// MaxDepth bounds the path length along which a node is expanded. Depth is
// the length of the path that first added an edge, so a node reached again
// along a shorter path only re-expands through edges that are new to the
// graph. Whether a deep subtree is pruned with DEPTH_EXCEEDED can therefore
// depend on traversal order.
type Options struct {
	MaxDepth int              // Maximum depth to expand (default: 50)
	MaxNodes int              // Maximum nodes in the graph (default: 5000)
	Workers  int              // Concurrent version lookups (default: 8)
	Kinds    registry.KindSet // Followed dependency kinds (default: normal, build)
	Logger   *log.Logger      // Progress and diagnostics (default: discard)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Kinds == 0 {
		opts.Kinds = registry.DefaultKinds
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}
