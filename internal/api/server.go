// Package api serves scraped events over HTTP as JSON and GeoJSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/metrics"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// MaxRangeDays bounds the number of days a range request may span.
const MaxRangeDays = 31

// Pipeline produces the records of a day or a range of days.
type Pipeline interface {
	EventsFor(ctx context.Context, day time.Time) ([]event.Record, error)
	EventsForRange(ctx context.Context, start, end time.Time) ([]event.Record, error)
}

// CacheStore exposes the location cache maintenance operations.
type CacheStore interface {
	Stats(ctx context.Context) int64
	Clear(ctx context.Context) (int64, error)
}

// Server is the HTTP front end. Pipeline calls are serialized so concurrent
// requests never scrape in parallel.
type Server struct {
	pipeline Pipeline
	cache    CacheStore
	bbox     event.BoundingBox
	log      *logger.Logger

	mu     sync.Mutex
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithBoundingBox overrides the box used to filter GeoJSON features.
func WithBoundingBox(b event.BoundingBox) Option {
	return func(s *Server) { s.bbox = b }
}

// WithLogger sets the request and error logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer wires the routes around p and cache.
func NewServer(p Pipeline, cache CacheStore, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		cache:    cache,
		bbox:     event.WarsawBBox,
		log:      logger.Default().With(logger.Fields{"component": "api"}),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Get("/events/geojson", s.handleGeoJSON)
		r.Get("/events-range", s.handleRange)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Post("/cache/clear", s.handleCacheClear)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// range requests scrape one page per day
		WriteTimeout: 10 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("API server starting", logger.Fields{"addr": addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
