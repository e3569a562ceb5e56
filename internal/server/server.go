// Package server exposes resolutions over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/crates/{crate}/graph?version=&max_depth=&format=json|dot
//	GET /api/v1/crates/{crate}/versions
//
// Errors are JSON objects {"code": "...", "error": "..."}.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/pipeline"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Server timeouts.
const (
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 2 * time.Minute
	IdleTimeout     = time.Minute
	ShutdownTimeout = 10 * time.Second
)

// Config wires a Server.
type Config struct {
	Runner   *pipeline.Runner
	Registry registry.Registry

	// Defaults supplies limits and kinds for every request. Crate,
	// Version, Manifest and Refresh are ignored.
	Defaults pipeline.Options

	Logger *log.Logger

	// Metrics serves /metrics. Nil means promhttp.Handler().
	Metrics http.Handler
}

// Server handles the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	reg      registry.Registry
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router
}

// New builds the router for cfg.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	s := &Server{
		runner:   runner,
		reg:      cfg.Registry,
		defaults: cfg.Defaults,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Route("/api/v1/crates/{crate}", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/versions", s.handleVersions)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.ErrCodeNotFound, "no route for "+r.URL.Path)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "registry", s.reg.Name())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := s.defaults
	opts.Crate = chi.URLParam(r, "crate")
	opts.Version = q.Get("version")
	opts.Manifest = nil
	opts.Refresh = false

	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "max_depth must be a positive integer")
			return
		}
		opts.MaxDepth = n
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if format != pipeline.FormatJSON && format != pipeline.FormatDOT {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidFormat, "format must be json or dot")
		return
	}

	res, hit, err := s.runner.ResolveWithCacheInfo(r.Context(), s.reg, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := s.runner.Render(r.Context(), res, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	etag := `"` + cache.Hash(body) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Resolution-Id", res.ID)
	w.Header().Set("X-Cache", cacheStatus(hit))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// versionsResponse is the body of the versions endpoint.
type versionsResponse struct {
	Crate    string   `json:"crate"`
	Latest   string   `json:"latest"`
	Versions []string `json:"versions"`
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	crate := chi.URLParam(r, "crate")
	if err := errors.ValidateCrateName(crate); err != nil {
		s.fail(w, r, err)
		return
	}

	catalog := deps.NewCatalog(s.runner.Registry(s.reg, false))
	versions, err := catalog.ListVersions(r.Context(), crate)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			err = errors.Wrap(errors.ErrCodeRootNotFound, err, "crate %s not found", crate)
		}
		s.fail(w, r, err)
		return
	}

	resp := versionsResponse{Crate: crate, Versions: make([]string, len(versions))}
	for i, v := range versions {
		resp.Versions[i] = v.Original()
	}
	resp.Latest = resp.Versions[len(resp.Versions)-1]
	writeJSON(w, http.StatusOK, resp)
}

// fail logs err and writes it with the status its code maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		code = errors.ErrCodeTimeout
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	}
	writeError(w, status, code, errors.UserMessage(err))
}

func statusFor(code errors.Code) int {
	switch {
	case errors.IsFatal(code), code == errors.ErrCodeNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeInvalidInput, code == errors.ErrCodeInvalidCrate, code == errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case code == errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case code == errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code errors.Code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
