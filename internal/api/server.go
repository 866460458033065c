package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/regindex/internal/config"
	"github.com/dgallion1/regindex/internal/metrics"
	"github.com/dgallion1/regindex/internal/pipeline"
	"github.com/dgallion1/regindex/internal/search"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for regindex.
type Server struct {
	router       chi.Router
	searcher     *search.Searcher
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. Index build endpoints are
// only mounted when orch is non-nil and an API key is configured; /metrics
// only when m is non-nil.
func NewServer(searcher *search.Searcher, orch *pipeline.Orchestrator, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		searcher:     searcher,
		orchestrator: orch,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/regulation", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/quote", s.handleQuote)
		r.Get("/stats", s.handleStats)
	})

	// Authenticated endpoints.
	if s.orchestrator != nil && s.cfg.APIKey != "" {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

			r.Post("/api/index", s.handleIndex)
			r.Get("/api/index/{jobID}/status", s.handleIndexStatus)
		})
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
