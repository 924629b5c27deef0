package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	applog "anggaran/internal/log"
	"anggaran/internal/middleware/ratelimit"
	"anggaran/internal/middleware/security"
	"anggaran/internal/middleware/trace"
	"anggaran/internal/services"
)

// Server wraps http.Server with the budget API routes.
type Server struct {
	http.Server

	svc     *services.BudgetService
	logger  *applog.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	now     func() time.Time
	started time.Time

	shutdownOnce sync.Once
}

// ServerOptions tunes the middleware chain.
type ServerOptions struct {
	// RateLimitRPM caps write requests per client per minute.
	RateLimitRPM   int
	TrustedProxies []string
	Logger         *applog.Logger
	Now            func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, svc *services.BudgetService, opts ServerOptions) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	resolver := security.NewIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:     svc,
		logger:  logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		tracer:  trace.NewMiddleware(resolver.ExtractClientIP, logger),
		now:     opts.Now,
		started: opts.Now(),
	}

	r := chi.NewRouter()
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.tracer.Handler)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limitWrites(resolver.ExtractClientIP))

		r.Get("/state", s.handleState)
		r.Get("/dashboard", s.handleDashboard)
		r.Put("/income", s.handleSetIncome)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Post("/auto-adjust", s.handleAutoAdjust)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
			r.Put("/{id}/allocation", s.handleSetAllocation)
			r.Delete("/{id}/expenses", s.handleClearExpenses)
			r.Get("/{id}/tip", s.handleSpendingTip)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", s.handleAddExpense)
			r.Post("/undo/{token}", s.handleUndoDelete)
			r.Put("/{id}", s.handleEditExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/incomes", func(r chi.Router) {
			r.Post("/", s.handleAddIncome)
			r.Put("/{id}", s.handleEditIncome)
			r.Delete("/{id}", s.handleDeleteIncome)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", s.handleListSources)
			r.Post("/", s.handleAddSource)
			r.Post("/transfer", s.handleTransfer)
			r.Delete("/{id}", s.handleDeleteSource)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleAddGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
			r.Post("/{id}/allocate", s.handleAllocateToGoal)
		})

		r.Route("/rollover", func(r chi.Router) {
			r.Get("/", s.handleRolloverStatus)
			r.Post("/confirm", s.handleConfirmRollover)
			r.Post("/skip", s.handleSkipRollover)
			r.Post("/archive-now", s.handleArchiveNow)
		})

		r.Get("/archives", s.handleArchives)
		r.Get("/reports", s.handleReport)
		r.Get("/reports/months", s.handleReportMonths)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed").Write(w)
	})

	s.Handler = r
	return s, nil
}

// limitWrites rate limits every request that can change state.
func (s *Server) limitWrites(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	limited := s.limiter.Middleware(extractIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		w.Header().Set("Retry-After", "60")
		ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, please try again later").Write(w)
	})
	return func(next http.Handler) http.Handler {
		guarded := limited(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request and rate limit counters.
func (s *Server) Metrics() (trace.Snapshot, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
