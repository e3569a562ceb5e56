package deps

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
	"github.com/matzehuels/cratedeps/pkg/observability"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// DefaultManifestVersion is the root version used by ResolveManifest when
// the manifest does not declare one.
const DefaultManifestVersion = "0.0.0"

// Resolver builds dependency graphs from one registry.
//
// A Resolver holds no per-resolution state, so one instance can serve
// concurrent resolutions of different roots.
type Resolver struct {
	reg     registry.Registry
	catalog *Catalog
	opts    Options
}

// NewResolver creates a Resolver over reg. Zero options take defaults.
func NewResolver(reg registry.Registry, opts Options) *Resolver {
	return &Resolver{
		reg:     reg,
		catalog: NewCatalog(reg),
		opts:    opts.WithDefaults(),
	}
}

// Catalog returns the version catalog the resolver reads from.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Options returns the effective options.
func (r *Resolver) Options() Options { return r.opts }

// Resolve builds the graph reachable from the latest version of crate.
//
// Returns an error with code ROOT_NOT_FOUND or NO_VERSIONS when the root
// cannot be established, the context error on cancellation, and
// REGISTRY_ERROR when the root's own metadata cannot be read. Every other
// failure is reported in Result.Issues.
func (r *Resolver) Resolve(ctx context.Context, crate string) (*Result, error) {
	return r.resolve(ctx, crate, func(ctx context.Context, w *walk) (*semver.Version, error) {
		v, err := r.catalog.LatestVersion(ctx, crate)
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeRootNotFound, err, "crate %s not found", crate)
		}
		return v, err
	}, nil)
}

// ResolveVersion is Resolve with the root pinned to version.
// An unpublished version is reported as ROOT_NOT_FOUND.
func (r *Resolver) ResolveVersion(ctx context.Context, crate, version string) (*Result, error) {
	return r.resolve(ctx, crate, func(ctx context.Context, w *walk) (*semver.Version, error) {
		want, err := semver.NewVersion(version)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid version %q", version)
		}
		versions, err := r.catalog.ListVersions(ctx, crate)
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeRootNotFound, err, "crate %s not found", crate)
		}
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			if v.Equal(want) {
				return v, nil
			}
		}
		return nil, errors.New(errors.ErrCodeRootNotFound, "version %s of crate %s not found", version, crate)
	}, nil)
}

// ResolveManifest builds the graph of a local package that is not
// published. The root node is (name, version) and its rows come from the
// caller, typically a parsed Cargo.toml; everything below is read from
// the registry. An empty version defaults to DefaultManifestVersion.
func (r *Resolver) ResolveManifest(ctx context.Context, name, version string, rows []registry.Dependency) (*Result, error) {
	if version == "" {
		version = DefaultManifestVersion
	}
	if rows == nil {
		rows = []registry.Dependency{}
	}
	return r.resolve(ctx, name, func(ctx context.Context, w *walk) (*semver.Version, error) {
		v, err := semver.NewVersion(version)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid manifest version %q", version)
		}
		return v, nil
	}, rows)
}

type rootFunc func(ctx context.Context, w *walk) (*semver.Version, error)

func (r *Resolver) resolve(ctx context.Context, crate string, root rootFunc, rootRows []registry.Dependency) (res *Result, err error) {
	id := uuid.NewString()
	logger := r.opts.Logger.With("resolution", id[:8])
	regName := r.reg.Name()

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, regName, crate)
	start := time.Now()
	defer func() {
		nodes, edges := 0, 0
		if res != nil {
			nodes, edges = res.Graph.NodeCount(), res.Graph.EdgeCount()
		}
		hooks.OnResolveComplete(ctx, regName, crate, nodes, edges, time.Since(start), err)
	}()

	w := &walk{
		r:        r,
		logger:   logger,
		registry: regName,
		g:        graph.New(),
		store:    graph.NewNodeStore(),
		seen:     make(map[Issue]bool),
		versions: newMemo[[]*semver.Version](),
		rows:     newMemo[[]registry.Dependency](),
	}

	v, err := root(ctx, w)
	if err != nil {
		logger.Debug("root failed", "crate", crate, "err", err)
		return nil, err
	}
	if rootRows != nil {
		w.rows.done[rowsKey(crate, v.Original())] = memoEntry[[]registry.Dependency]{val: rootRows}
	}

	logger.Debug("resolving", "crate", crate, "version", v.Original())
	rootID := w.store.Ensure(w.g, crate, v)
	if err := w.run(ctx, frame{id: rootID, crate: crate, version: v}); err != nil {
		return nil, err
	}
	w.g.Freeze()

	logger.Debug("resolved", "crate", crate, "nodes", w.g.NodeCount(), "edges", w.g.EdgeCount(), "issues", len(w.issues))
	return &Result{ID: id, Root: rootID, Graph: w.g, Issues: w.issues}, nil
}

// walk is the state of one resolution. Only the goroutine running run
// touches g, store and issues.
type walk struct {
	r        *Resolver
	logger   *log.Logger
	registry string

	g      *graph.Graph
	store  *graph.NodeStore
	issues []Issue
	seen   map[Issue]bool

	versions *memo[[]*semver.Version]
	rows     *memo[[]registry.Dependency]
}

type frame struct {
	id      graph.NodeID
	crate   string
	version *semver.Version
	depth   int
}

// selection is the outcome of resolving one dependency row.
type selection struct {
	dep     registry.Dependency
	version *semver.Version
	err     error
}

func (w *walk) run(ctx context.Context, root frame) error {
	opts := w.r.opts
	stack := []frame{root}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		label := graph.Label(f.crate, f.version.Original())

		rows, err := w.dependencies(ctx, f.crate, f.version.Original())
		if err != nil {
			if isContextErr(err) {
				return err
			}
			if f.id == root.id {
				return err
			}
			w.record(ctx, Issue{Code: errors.ErrCodeRegistry, From: label, Depth: f.depth, Err: err})
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if f.depth >= opts.MaxDepth {
			w.record(ctx, Issue{
				Code:  errors.ErrCodeDepthExceeded,
				From:  label,
				Depth: f.depth,
				Err:   errors.New(errors.ErrCodeDepthExceeded, "%s not expanded: depth limit %d reached", label, opts.MaxDepth),
			})
			continue
		}

		w.logger.Debug("expanding", "crate", f.crate, "version", f.version.Original(), "depth", f.depth, "rows", len(rows))
		selections, err := w.selectAll(ctx, rows)
		if err != nil {
			return err
		}

		var next []frame
		for _, sel := range selections {
			if sel.err != nil {
				w.record(ctx, Issue{
					Code:        errors.GetCode(sel.err),
					From:        label,
					Crate:       sel.dep.Crate,
					Requirement: sel.dep.Requirement,
					Depth:       f.depth,
					Err:         sel.err,
				})
				continue
			}
			if _, seen := w.store.Lookup(sel.dep.Crate, sel.version); !seen && w.g.NodeCount() >= opts.MaxNodes {
				w.record(ctx, Issue{
					Code:        errors.ErrCodeNodeLimit,
					From:        label,
					Crate:       sel.dep.Crate,
					Requirement: sel.dep.Requirement,
					Depth:       f.depth,
					Err:         errors.New(errors.ErrCodeNodeLimit, "node limit %d reached", opts.MaxNodes),
				})
				continue
			}

			to := w.store.Ensure(w.g, sel.dep.Crate, sel.version)
			added, err := w.g.AddEdge(f.id, to)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "add edge %s -> %s", label, sel.dep.Crate)
			}
			if !added {
				continue
			}
			next = append(next, frame{id: to, crate: sel.dep.Crate, version: sel.version, depth: f.depth + 1})
		}

		// Push in reverse so the first row is expanded first.
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return nil
}

// dependencies returns the rows of crate@version that the kind policy follows.
func (w *walk) dependencies(ctx context.Context, crate, version string) ([]registry.Dependency, error) {
	all, err := w.rows.get(rowsKey(crate, version), func() ([]registry.Dependency, error) {
		rows, err := w.r.reg.ListDependencies(ctx, crate, version)
		if err != nil {
			return nil, classifyRegistryError(err, "list dependencies of %s@%s", crate, version)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	kinds := w.r.opts.Kinds
	rows := make([]registry.Dependency, 0, len(all))
	for _, d := range all {
		if kinds.Has(d.Kind) {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

// selectAll resolves rows concurrently. Results keep row order; per-row
// failures are returned in the selection, and only cancellation fails
// the whole call.
func (w *walk) selectAll(ctx context.Context, rows []registry.Dependency) ([]selection, error) {
	out := make([]selection, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.r.opts.Workers)

	for i, dep := range rows {
		out[i].dep = dep
		g.Go(func() error {
			v, err := w.selectOne(gctx, dep)
			if isContextErr(err) {
				return err
			}
			out[i].version, out[i].err = v, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func (w *walk) selectOne(ctx context.Context, dep registry.Dependency) (*semver.Version, error) {
	c, err := ParseRequirement(dep.Requirement)
	if err != nil {
		return nil, err
	}

	candidates, err := w.versions.get(dep.Crate, func() ([]*semver.Version, error) {
		return w.r.catalog.ListVersions(ctx, dep.Crate)
	})
	switch {
	case err == nil:
	case isContextErr(err):
		return nil, err
	case errors.Is(err, errors.ErrCodeNotFound), errors.IsFatal(errors.GetCode(err)):
		return nil, errors.Wrap(errors.ErrCodeNoCompatibleVersion, err,
			"no version of %s matches requirement %q", dep.Crate, dep.Requirement)
	default:
		return nil, err
	}

	return selectMatching(dep.Crate, dep.Requirement, c, candidates)
}

// record appends is unless the same failure was already recorded, which
// happens when a node is re-expanded through a second incoming edge.
func (w *walk) record(ctx context.Context, is Issue) {
	key := Issue{Code: is.Code, From: is.From, Crate: is.Crate, Requirement: is.Requirement}
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.issues = append(w.issues, is)
	observability.Resolve().OnIssue(ctx, w.registry, string(is.Code))
	w.logger.Warn("skipped", "code", is.Code, "from", is.From, "crate", is.Crate, "req", is.Requirement, "err", is.Message())
}

func rowsKey(crate, version string) string { return crate + "@" + version }
