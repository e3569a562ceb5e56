package integrations

import (
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a crate or version doesn't exist upstream.
	ErrNotFound = registry.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = cache.ErrNetwork
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// PathEscape percent-encodes one URL path segment.
func PathEscape(s string) string { return url.PathEscape(s) }
