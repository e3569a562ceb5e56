package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/graph"
	cdio "github.com/matzehuels/cratedeps/pkg/io"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// DefaultTTL applies when Runner.TTL is zero.
const DefaultTTL = 24 * time.Hour

// Runner resolves crates with caching.
//
// The Runner is stateless except for the cache and logger, so one value
// can serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Registry wraps reg so that its responses go through the runner's cache.
func (r *Runner) Registry(reg registry.Registry, refresh bool) registry.Registry {
	return registry.Cached(reg, r.Cache, r.ttl(), registry.WithKeyer(r.Keyer), registry.WithRefresh(refresh))
}

// ResolveWithCacheInfo resolves opts against reg and reports whether the
// graph came from the cache.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, reg registry.Registry, opts Options) (*deps.Result, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	key, err := r.graphKey(reg.Name(), opts)
	if err != nil {
		return nil, false, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			res, err := cdio.ReadJSON(bytes.NewReader(data))
			if err == nil {
				r.Logger.Debug("graph cache hit", "key", key)
				return res, true, nil
			}
			r.Logger.Warn("discarding unreadable cached graph", "key", key, "err", err)
		}
	}

	start := time.Now()
	resolver := deps.NewResolver(r.Registry(reg, opts.Refresh), opts.ResolverOptions())
	var res *deps.Result
	if opts.Manifest != nil {
		m := opts.Manifest
		res, err = resolver.ResolveManifest(ctx, m.Name, m.Version, m.Dependencies)
	} else if opts.Version != "" {
		res, err = resolver.ResolveVersion(ctx, opts.Crate, opts.Version)
	} else {
		res, err = resolver.Resolve(ctx, opts.Crate)
	}
	if err != nil {
		return nil, false, err
	}

	r.Logger.Info("resolved dependencies",
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
		"skipped", res.SkippedEdges(),
		"duration", time.Since(start))

	var buf bytes.Buffer
	if err := cdio.WriteJSON(res, &buf); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), r.ttl()); err != nil {
			r.Logger.Warn("caching graph failed", "err", err)
		}
	}
	return res, false, nil
}

// Resolve is ResolveWithCacheInfo without the cache hit info.
func (r *Runner) Resolve(ctx context.Context, reg registry.Registry, opts Options) (*deps.Result, error) {
	res, _, err := r.ResolveWithCacheInfo(ctx, reg, opts)
	return res, err
}

// Render serializes res in one of [Formats].
func (r *Runner) Render(ctx context.Context, res *deps.Result, format string) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := cdio.WriteJSON(res, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(toDOT(res)), nil
	default:
		return cdio.RenderSVG(ctx, toDOT(res))
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL <= 0 {
		return DefaultTTL
	}
	return r.TTL
}

// graphKey names the graph for opts. Manifests are keyed by a hash of
// their package identity and rows.
func (r *Runner) graphKey(registryName string, opts Options) (string, error) {
	ro := opts.ResolverOptions()
	keyOpts := cache.GraphKeyOpts{
		Version:  opts.Version,
		MaxDepth: ro.MaxDepth,
		MaxNodes: ro.MaxNodes,
		Kinds:    ro.Kinds.Strings(),
	}
	crate := opts.Crate
	if m := opts.Manifest; m != nil {
		data, err := json.Marshal(struct {
			Name, Version string
			Rows          []registry.Dependency
		}{m.Name, m.Version, m.Dependencies})
		if err != nil {
			return "", fmt.Errorf("hash manifest: %w", err)
		}
		crate = "manifest:" + cache.Hash(data)
	}
	return r.Keyer.GraphKey(registryName, crate, keyOpts), nil
}

func toDOT(res *deps.Result) string {
	opts := cdio.DOTOptions{MarkDuplicates: true}
	if _, ok := res.Graph.Node(res.Root); ok {
		opts.Root = res.Root
		opts.HighlightRoot = true
	}
	return cdio.ToDOT(res.Graph, opts)
}

// Summary returns the one-line description printed after a resolution.
func Summary(res *deps.Result) string {
	stats := graph.Summarize(res.Graph, res.Root)
	return fmt.Sprintf("%d nodes, %d edges, %d skipped edges, depth %d",
		stats.Nodes, stats.Edges, res.SkippedEdges(), stats.MaxDepth)
}
