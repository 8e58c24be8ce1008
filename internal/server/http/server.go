// Package httpserver provides the HTTP REST API server for the research assistant service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LoganNickels654/research-assistant-service/internal/database"
	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
	"github.com/LoganNickels654/research-assistant-service/internal/repository"
)

// QuestionProcessor runs the research pipeline for a question.
type QuestionProcessor interface {
	ProcessResearchQuestion(ctx context.Context, question string, maxPapers int) []*domain.Paper
}

// QuotaService checks and consumes per-user search allowances.
type QuotaService interface {
	Consume(ctx context.Context, userID uuid.UUID) error
}

// TokenValidator validates bearer tokens and extracts the user they carry.
type TokenValidator interface {
	ExtractUserID(tokenString string) (uuid.UUID, error)
}

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	pipeline    QuestionProcessor
	savedPapers repository.SavedPaperRepository
	quota       QuotaService
	tokens      TokenValidator
	db          *database.DB
	metrics     *observability.Metrics
	validate    *validator.Validate
	rateLimiter *rateLimiter
	search      SearchConfig
	logger      zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RateLimit RateLimitConfig
	Search    SearchConfig
}

// SearchConfig bounds search requests.
type SearchConfig struct {
	// DefaultMaxPapers is used when the request omits max_papers.
	DefaultMaxPapers int
	// MaxPapersLimit caps the requestable result size.
	MaxPapersLimit int
	// QuestionMaxLength caps the research question length in characters.
	QuestionMaxLength int
}

// NewServer creates a new HTTP server with all dependencies.
// metrics may be nil, in which case no metrics are recorded.
func NewServer(
	cfg Config,
	pipeline QuestionProcessor,
	savedPapers repository.SavedPaperRepository,
	quota QuotaService,
	tokens TokenValidator,
	db *database.DB,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	search := cfg.Search
	if search.DefaultMaxPapers <= 0 {
		search.DefaultMaxPapers = 10
	}
	if search.MaxPapersLimit <= 0 {
		search.MaxPapersLimit = 50
	}
	if search.QuestionMaxLength <= 0 {
		search.QuestionMaxLength = 500
	}

	s := &Server{
		pipeline:    pipeline,
		savedPapers: savedPapers,
		quota:       quota,
		tokens:      tokens,
		db:          db,
		metrics:     metrics,
		validate:    validator.New(),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		search:      search,
		logger:      logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-ID"},
	}))

	// Health endpoints (no auth)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	// API routes with auth + per-IP rate limiting
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Use(s.authMiddleware)

		r.Post("/search", s.searchHandler)
		r.Post("/papers", s.savePaperHandler)
		r.Get("/papers", s.listPapersHandler)
		r.Get("/papers/{paperID}", s.getPaperHandler)
		r.Delete("/papers/{paperID}", s.deletePaperHandler)
	})

	return r
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler returns readiness status including database connectivity.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Encode errors cannot be reported to the client at this point.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
