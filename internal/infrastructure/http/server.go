// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/ragroute/internal/domain/usecases"
)

// Options configures the listener and middleware.
type Options struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RateLimit     float64 // requests/second, 0 disables
	RateBurst     int
	AllowedOrigin string
}

// Server is the HTTP server for the orchestration API.
type Server struct {
	orchestrate *usecases.OrchestrateUseCase
	generate    *usecases.GenerateUseCase
	provision   *usecases.ProvisionUseCase
	limiter     *rate.Limiter
	opts        Options
	logger      *zap.Logger
}

// NewServer creates a new HTTP server. generate and provision may be nil,
// in which case their routes answer 503.
func NewServer(
	orchestrate *usecases.OrchestrateUseCase,
	generate *usecases.GenerateUseCase,
	provision *usecases.ProvisionUseCase,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 300 * time.Second // Longer for streaming
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Server{
		orchestrate: orchestrate,
		generate:    generate,
		provision:   provision,
		limiter:     limiter,
		opts:        opts,
		logger:      logger,
	}
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/orchestrate", s.handleOrchestrate)
	mux.HandleFunc("GET /api/route", s.handleRoute)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/generate/stream", s.handleGenerateStream) // SSE streaming
	mux.HandleFunc("PUT /api/collections/{name}", s.handleEnsureCollection)
	mux.HandleFunc("GET /api/decisions", s.handleDecisions)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	var h http.Handler = mux
	h = rateLimitMiddleware(s.limiter, h)
	h = loggingMiddleware(s.logger, h)
	h = requestIDMiddleware(h)
	h = corsMiddleware(s.opts.AllowedOrigin, h)
	return h
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("ragroute server starting", zap.String("addr", s.opts.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
