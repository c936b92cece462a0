// Package http exposes the spending analytics JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "donghaeng/internal/log"
	"donghaeng/internal/middleware/auth"
	"donghaeng/internal/middleware/ratelimit"
	"donghaeng/internal/middleware/security"
	"donghaeng/internal/middleware/trace"
	"donghaeng/internal/ports"
	"donghaeng/internal/services"
)

// Services are the application services behind the API.
type Services struct {
	Transactions *services.TransactionService
	Mappings     *services.MappingService
	Analytics    *services.AnalyticsService
	Store        ports.Pinger
}

// Options configures the middleware chain.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	TrustedProxies []string
	RequestTimeout time.Duration
	RateLimit      ratelimit.Config
}

type Server struct {
	http.Server
	svc    Services
	logger *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	verifier         *auth.Verifier
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options, logger *applog.Logger) (*Server, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 7 * time.Second
	}

	s := &Server{
		svc:              svc,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(),
		verifier:         auth.NewVerifier(opts.JWTSecret),
		startedAt:        time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(logger, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(logger *applog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(s.traceMiddleware.Middleware)
	r.Use(applog.RequestIDMiddleware(logger, trace.FromRequest))
	r.Use(applog.AccessLog(s.securityDetector.ExtractClientIP))
	r.Use(middleware.Recoverer)
	r.Use(s.securityDetector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(security.CORS(security.DefaultCORSConfig(opts.AllowedOrigins)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited))
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(s.verifier.Middleware(s.handleUnauthorized))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)

		r.Route("/category-mappings", func(r chi.Router) {
			r.Get("/", s.handleListMappings)
			r.Get("/gaps", s.handleListMappingGaps)
			r.Put("/{label}", s.handlePutMapping)
			r.Delete("/{label}", s.handleDeleteMapping)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/monthly", s.handleMonthlyStats)
			r.Get("/comparison", s.handleComparison)
			r.Get("/prediction", s.handlePrediction)
			r.Get("/budget", s.handleBudget)
		})
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request, _ error) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		s.rateLimiter.Stop()
		if err := s.Server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http shutdown: %w", err)
		}
	})
	return shutdownErr
}
