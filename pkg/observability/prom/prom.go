// Package prom implements the observability hooks with Prometheus metrics.
//
// Register once at startup:
//
//	m, err := prom.Register(prometheus.DefaultRegisterer)
//	if err != nil { ... }
//	m.Install()
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/cratedeps/pkg/observability"
)

const namespace = "cratedeps"

// Metrics holds the collectors backing all hook implementations.
type Metrics struct {
	ResolveTotal    *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec
	GraphNodes      *prometheus.HistogramVec
	Issues          *prometheus.CounterVec

	CacheEvents *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPErrors   *prometheus.CounterVec
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		ResolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_total",
				Help:      "Total number of graph resolutions by outcome",
			},
			[]string{"registry", "outcome"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Wall-clock time of graph resolutions",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"registry"},
		),
		GraphNodes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes in resolved graphs",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
			},
			[]string{"registry"},
		),
		Issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_issues_total",
				Help:      "Recoverable resolution problems by error code",
			},
			[]string{"registry", "code"},
		),
		CacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_events_total",
				Help:      "Cache hits, misses and writes by key type",
			},
			[]string{"key_type", "event"},
		),
		CacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_written_bytes_total",
				Help:      "Bytes written to the cache by key type",
			},
			[]string{"key_type"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_http_requests_total",
				Help:      "Registry HTTP responses by host and status",
			},
			[]string{"host", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "registry_http_duration_seconds",
				Help:      "Registry HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		HTTPErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_http_errors_total",
				Help:      "Registry HTTP transport failures",
			},
			[]string{"host"},
		),
	}
}

// Register creates the collectors and registers them with reg.
func Register(reg prometheus.Registerer) (*Metrics, error) {
	m := New()
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Install makes m the process-wide hook implementation.
func (m *Metrics) Install() {
	observability.SetResolveHooks(resolveHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetHTTPHooks(httpHooks{m})
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ResolveTotal, m.ResolveDuration, m.GraphNodes, m.Issues,
		m.CacheEvents, m.CacheBytes,
		m.HTTPRequests, m.HTTPDuration, m.HTTPErrors,
	}
}

type resolveHooks struct{ m *Metrics }

func (h resolveHooks) OnResolveStart(context.Context, string, string) {}

func (h resolveHooks) OnResolveComplete(_ context.Context, registry, _ string, nodes, _ int, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.m.ResolveTotal.WithLabelValues(registry, outcome).Inc()
	h.m.ResolveDuration.WithLabelValues(registry).Observe(d.Seconds())
	if err == nil {
		h.m.GraphNodes.WithLabelValues(registry).Observe(float64(nodes))
	}
}

func (h resolveHooks) OnIssue(_ context.Context, registry, code string) {
	h.m.Issues.WithLabelValues(registry, code).Inc()
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.m.CacheEvents.WithLabelValues(keyType, "set").Inc()
	h.m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

type httpHooks struct{ m *Metrics }

func (h httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.m.HTTPRequests.WithLabelValues(host, statusClass(status)).Inc()
	h.m.HTTPDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.m.HTTPErrors.WithLabelValues(host).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
