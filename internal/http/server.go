package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/recovery"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// TransactionAPI is the service surface the handlers call.
// *services.TransactionService satisfies it.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, in services.TransactionInput) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in services.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	Dashboard(ctx context.Context) (services.Dashboard, error)
	Ping(ctx context.Context) error
}

// Options tunes the middleware stack.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
}

// Server is the JSON API server.
type Server struct {
	http.Server

	service TransactionAPI
	logger  *log.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	startTime time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc TransactionAPI, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		service:          svc,
		logger:           logger,
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		startTime:        time.Now(),
	}

	mux := http.NewServeMux()

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldComponent, log.ComponentRateLimit,
			log.FieldClientIP, detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})
	api := func(h http.HandlerFunc) http.Handler { return limited(h) }

	mux.Handle("POST /api/transactions", api(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions", api(s.handleListTransactions))
	mux.Handle("PUT /api/transactions/{id}", api(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", api(s.handleDeleteTransaction))
	mux.Handle("GET /api/dashboard", api(s.handleDashboard))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		log.Middleware(logger),
		recovery.Middleware(func(w http.ResponseWriter, r *http.Request) {
			InternalServerError().Write(w)
		}),
		s.traceMiddleware.Middleware,
		log.RequestIDMiddleware(trace.RequestIDFromRequest),
		headers.Middleware,
		detector.Middleware,
	}
	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Shutdown stops the rate limiter cleanup and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}
