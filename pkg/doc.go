// Package pkg provides the libraries behind cratedeps.
//
// # Overview
//
// cratedeps follows the version requirements of a Rust crate through its
// registry and records every (crate, version) it reaches as a node of a
// dependency graph. For each requirement the highest satisfying version is
// chosen, independently of every other requirement, so one crate may
// appear at several versions.
//
// # Architecture
//
//	registry (crates.io API | SQLite dump | TOML fixture)
//	         ↓  registry.Cached over cache.Cache
//	    [deps] Resolver (catalog + constraint matching + traversal)
//	         ↓
//	    [graph] frozen Graph + Issues
//	         ↓
//	    [io] JSON / DOT / SVG
//
// [pipeline] ties these together with graph caching for the CLI and the
// HTTP server.
//
// # Quick Start
//
//	reg := crates.NewClient(crates.Options{UserAgent: buildinfo.UserAgent()})
//	r := deps.NewResolver(reg, deps.Options{MaxDepth: 10})
//	res, err := r.Resolve(ctx, "serde_json")
//	if err != nil {
//	    return err
//	}
//	for _, is := range res.Issues {
//	    fmt.Println(is.Code, is.From, is.Crate, is.Requirement)
//	}
//	return io.WriteJSON(res, os.Stdout)
//
// # Packages
//
//   - [registry]: the metadata boundary, fixtures and the caching decorator
//   - [integrations/crates]: crates.io HTTP client
//   - [registry/sqlstore]: crates.io database dump in SQLite
//   - [deps]: version catalog, requirement matching and the resolver
//   - [graph]: arena graph with integer node ids
//   - [manifest]: Cargo.toml reader
//   - [io]: JSON, Graphviz DOT and SVG output
//   - [cache]: file, Redis and null caches
//   - [config]: TOML configuration
//   - [observability]: hooks, with Prometheus in [observability/prom]
//   - [errors]: coded errors shared by every package
//
// [registry]: github.com/matzehuels/cratedeps/pkg/registry
// [integrations/crates]: github.com/matzehuels/cratedeps/pkg/integrations/crates
// [registry/sqlstore]: github.com/matzehuels/cratedeps/pkg/registry/sqlstore
// [deps]: github.com/matzehuels/cratedeps/pkg/deps
// [graph]: github.com/matzehuels/cratedeps/pkg/graph
// [manifest]: github.com/matzehuels/cratedeps/pkg/manifest
// [io]: github.com/matzehuels/cratedeps/pkg/io
// [pipeline]: github.com/matzehuels/cratedeps/pkg/pipeline
// [cache]: github.com/matzehuels/cratedeps/pkg/cache
// [config]: github.com/matzehuels/cratedeps/pkg/config
// [observability]: github.com/matzehuels/cratedeps/pkg/observability
// [observability/prom]: github.com/matzehuels/cratedeps/pkg/observability/prom
// [errors]: github.com/matzehuels/cratedeps/pkg/errors
package pkg
