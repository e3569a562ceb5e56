package crates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/matzehuels/cratedeps/pkg/integrations"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

const (
	// DefaultBaseURL is the public crates.io API root.
	DefaultBaseURL = "https://crates.io/api/v1"

	// DefaultUserAgent identifies cratedeps to crates.io.
	DefaultUserAgent = "cratedeps/1.0 (https://github.com/matzehuels/cratedeps)"
)

// Options configures a Client. Zero fields take the defaults above.
type Options struct {
	BaseURL   string
	UserAgent string

	// HTTPClient overrides the default client with a 10s timeout.
	HTTPClient *http.Client
}

// Client provides access to the crates.io registry API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	c := integrations.NewClient("crates.io", map[string]string{
		"User-Agent": opts.UserAgent,
		"Accept":     "application/json",
	})
	if opts.HTTPClient != nil {
		c.WithHTTPClient(opts.HTTPClient)
	}
	return &Client{
		Client:  c,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
	}
}

// Name implements registry.Registry.
func (c *Client) Name() string { return "crates.io" }

// ListVersions returns every published version of crate, yanked ones
// included, in the order crates.io reports them (newest first).
//
// Returns an error wrapping [registry.ErrNotFound] if the crate doesn't exist.
func (c *Client) ListVersions(ctx context.Context, crate string) ([]string, error) {
	url := fmt.Sprintf("%s/crates/%s/versions", c.baseURL, integrations.PathEscape(crate))

	var data versionsResponse
	if err := c.Get(ctx, url, &data); err != nil {
		return nil, wrapNotFound(err, "crate %s", crate)
	}

	versions := make([]string, 0, len(data.Versions))
	for _, v := range data.Versions {
		versions = append(versions, v.Num)
	}
	return versions, nil
}

// ListDependencies returns the dependency rows declared by crate@version.
// Optional rows are reported as [registry.KindOptional].
func (c *Client) ListDependencies(ctx context.Context, crate, version string) ([]registry.Dependency, error) {
	url := fmt.Sprintf("%s/crates/%s/%s/dependencies",
		c.baseURL, integrations.PathEscape(crate), integrations.PathEscape(version))

	var data depsResponse
	if err := c.Get(ctx, url, &data); err != nil {
		return nil, wrapNotFound(err, "%s@%s", crate, version)
	}

	deps := make([]registry.Dependency, 0, len(data.Dependencies))
	for _, d := range data.Dependencies {
		kind, err := kindOf(d.Kind, d.Optional)
		if err != nil {
			return nil, fmt.Errorf("%s@%s: dependency %s: %w", crate, version, d.CrateID, err)
		}
		deps = append(deps, registry.Dependency{
			Crate:       d.CrateID,
			Requirement: d.Req,
			Kind:        kind,
		})
	}
	return deps, nil
}

func kindOf(name string, optional bool) (registry.Kind, error) {
	if optional {
		return registry.KindOptional, nil
	}
	if name == "" {
		return registry.KindNormal, nil
	}
	return registry.ParseKind(name)
}

func wrapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

type versionsResponse struct {
	Versions []struct {
		Num    string `json:"num"`
		Yanked bool   `json:"yanked"`
	} `json:"versions"`
}

type depsResponse struct {
	Dependencies []struct {
		CrateID  string `json:"crate_id"`
		Req      string `json:"req"`
		Kind     string `json:"kind"`
		Optional bool   `json:"optional"`
	} `json:"dependencies"`
}

var _ registry.Registry = (*Client)(nil)
