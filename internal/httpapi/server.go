// Package httpapi exposes attribution, tracking and analytics over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"marketing-attribution/internal/engine"
	"marketing-attribution/internal/ingestion"
	"marketing-attribution/internal/observability"
	"marketing-attribution/internal/orchestrator"
	"marketing-attribution/internal/storage"
)

// Server holds the handlers' dependencies.
type Server struct {
	engine   *engine.Engine
	pipeline *orchestrator.Orchestrator
	tracker  *ingestion.Tracker
	events   storage.EventStore
	spend    storage.SpendStore
	statuses storage.PlatformStatusStore

	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
	maxBody int64
	window  time.Duration
}

// Options contains configuration for creating a Server.
type Options struct {
	Engine   *engine.Engine
	Pipeline *orchestrator.Orchestrator // assembles journeys when a request omits them
	Tracker  *ingestion.Tracker
	Events   storage.EventStore
	Spend    storage.SpendStore
	Statuses storage.PlatformStatusStore

	Metrics *observability.Metrics
	Logger  zerolog.Logger
	Now     func() time.Time // default: time.Now
	// MaxBodyBytes limits request bodies. Default: 10 MiB.
	MaxBodyBytes int64
	// DefaultWindow is used when a store-backed query gives no from. Default: 30 days.
	DefaultWindow time.Duration
}

// New creates a new Server.
func New(opts Options) *Server {
	s := &Server{
		engine:   opts.Engine,
		pipeline: opts.Pipeline,
		tracker:  opts.Tracker,
		events:   opts.Events,
		spend:    opts.Spend,
		statuses: opts.Statuses,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
		maxBody:  opts.MaxBodyBytes,
		window:   opts.DefaultWindow,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxBody <= 0 {
		s.maxBody = 10 << 20
	}
	if s.window <= 0 {
		s.window = 30 * 24 * time.Hour
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger, s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/attribution", func(r chi.Router) {
		r.Post("/compute", s.handleCompute)
		r.Post("/batch", s.handleBatch)
		r.Post("/aggregate", s.handleAggregate)
		r.Post("/compare", s.handleCompare)
	})

	r.Post("/track/event", s.handleTrack)
	r.Post("/spend", s.handleSpend)
	r.Get("/accounts/status", s.handleAccountsStatus)
	r.Post("/accounts/status", s.handleReportStatus)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Get("/summary", s.handleSummary)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}
