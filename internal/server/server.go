package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raine/lootlook/internal/appraisal"
	"github.com/raine/lootlook/internal/metrics"
	"github.com/rs/zerolog"
)

const tagline = "Snap it. Price it. Loot it."

// Analyzer runs the appraisal pipeline for one image.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*appraisal.AnalysisReport, error)
}

// Options configures the HTTP handler.
type Options struct {
	AppName     string
	AppVersion  string
	CORSOrigins []string

	Analyzer Analyzer
	Logger   zerolog.Logger
	// Metrics may be nil. Gatherer backs GET /metrics and may be nil to omit it.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Server serves the LootLook HTTP API.
type Server struct {
	opts   Options
	router chi.Router
}

// New builds the router with all routes and middleware mounted.
func New(opts Options) *Server {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(opts.Logger, opts.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(opts.CORSOrigins))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/scan", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/health", s.handleScanHealth)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// corsHandler allows the configured origins with credentials. A "*" entry
// reflects any request origin, since browsers reject a literal wildcard
// together with credentials.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	if wildcard {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.Handler(opts)
}
