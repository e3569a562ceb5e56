// Package integrations provides the shared HTTP plumbing for registry API
// clients.
//
// # Overview
//
// Each upstream registry lives in its own subpackage and implements
// [registry.Registry] on top of [Client]:
//
//   - [crates]: the crates.io web API
//
// # Client Pattern
//
//	c := crates.NewClient(crates.Options{UserAgent: "my-tool/1.0"})
//	versions, err := c.ListVersions(ctx, "serde")
//
// [Client] handles:
//   - Default headers (crates.io rejects requests without a User-Agent)
//   - Retries with exponential backoff for 5xx, 429 and transport errors
//   - Mapping 404 to [registry.ErrNotFound]
//   - Request and response events through [observability.HTTP]
//
// Response caching is not done here; wrap the client with
// [registry.Cached] instead.
//
// [crates]: github.com/matzehuels/cratedeps/pkg/integrations/crates
// [registry.Registry]: github.com/matzehuels/cratedeps/pkg/registry.Registry
// [registry.ErrNotFound]: github.com/matzehuels/cratedeps/pkg/registry.ErrNotFound
// [registry.Cached]: github.com/matzehuels/cratedeps/pkg/registry.Cached
// [observability.HTTP]: github.com/matzehuels/cratedeps/pkg/observability.HTTP
package integrations
