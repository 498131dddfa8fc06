// Package api provides the REST API server for robonews.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
	"github.com/RobinCoderZhao/robonews/internal/ingest/pipeline"
	"github.com/RobinCoderZhao/robonews/internal/ingest/publisher"
	"github.com/RobinCoderZhao/robonews/internal/ingest/store"
)

// Runner starts ingestion runs.
type Runner interface {
	RunIngestion(ctx context.Context) pipeline.RunOutcome
	Sources() []catalog.Source
}

// Config holds the HTTP-facing settings.
type Config struct {
	FetchSecret string
	FetchEvery  time.Duration // minimum spacing of triggered runs, 0 = unlimited
	FetchBurst  int
	CORSOrigins []string
}

// Server holds the dependencies for the API.
type Server struct {
	store       store.Backend
	runner      Runner
	publisher   *publisher.Publisher
	fetchSecret []byte
	limiter     *rate.Limiter
	corsOrigins []string
	logger      *slog.Logger
}

// NewServer creates a new API Server instance. pub may be nil.
func NewServer(st store.Backend, runner Runner, pub *publisher.Publisher, cfg Config) *Server {
	limit := rate.Inf
	if cfg.FetchEvery > 0 {
		limit = rate.Every(cfg.FetchEvery)
	}
	burst := cfg.FetchBurst
	if burst <= 0 {
		burst = 1
	}
	return &Server{
		store:       st,
		runner:      runner,
		publisher:   pub,
		fetchSecret: []byte(cfg.FetchSecret),
		limiter:     rate.NewLimiter(limit, burst),
		corsOrigins: cfg.CORSOrigins,
		logger:      slog.Default().With("component", "api"),
	}
}

// Routes returns the configured http.Handler for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth())

	// Ingestion trigger (secret or token when a secret is configured)
	mux.Handle("GET /api/fetch", s.requireFetchAuth(s.throttle(s.handleFetch())))

	// Read contract
	mux.HandleFunc("GET /api/posts", s.handleListPosts())
	mux.HandleFunc("GET /api/posts/count", s.handleCountPosts())
	mux.HandleFunc("POST /api/posts/{id}/upvote", s.handleUpvote())
	mux.HandleFunc("GET /api/sources", s.handleSources())
	mux.HandleFunc("GET /api/domains", s.handleDomains())

	c := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return s.logRequests(c.Handler(mux))
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"store":  s.store.Ping(r.Context()),
		})
	}
}

// throttle rejects requests beyond the fetch rate with 429.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
