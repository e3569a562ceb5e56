// Package crates implements [registry.Registry] against the crates.io web API.
//
// # Endpoints
//
//   - GET /crates/{name}/versions: every published version, yanked included
//   - GET /crates/{name}/{version}/dependencies: declared dependency rows
//
// crates.io rejects anonymous traffic, so [Options.UserAgent] should name
// the tool and a contact URL. Responses are not cached here; wrap the
// client with [registry.Cached].
//
// [registry.Registry]: github.com/matzehuels/cratedeps/pkg/registry.Registry
// [registry.Cached]: github.com/matzehuels/cratedeps/pkg/registry.Cached
package crates
