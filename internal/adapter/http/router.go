package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/missionledger/internal/adapter/http/handler"
	"github.com/iho/missionledger/internal/adapter/http/middleware"
	"github.com/iho/missionledger/internal/infrastructure/metrics"
	"github.com/iho/missionledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PostingHandler *handler.PostingHandler
	BalanceHandler *handler.BalanceHandler
	PeriodHandler  *handler.PeriodHandler
	EntryHandler   *handler.EntryHandler
	LedgerHandler  *handler.LedgerHandler
	HealthHandler  *handler.HealthHandler

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsGatherer  prometheus.Gatherer
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics.HTTPRequests, cfg.Metrics.HTTPDuration))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			var replays prometheus.Counter
			if cfg.Metrics != nil {
				replays = cfg.Metrics.IdempotentReplays
			}
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, replays).Wrap)
		}

		r.Route("/postings", func(r chi.Router) {
			r.Get("/", cfg.PostingHandler.FindBySource)
			r.Post("/contributions", cfg.PostingHandler.CreateContribution)
			r.Post("/remittances", cfg.PostingHandler.CreateRemittance)
			r.Post("/expenditures", cfg.PostingHandler.CreateExpenditure)
			r.Post("/commissions", cfg.PostingHandler.CreateCommission)
			r.Post("/donations", cfg.PostingHandler.CreateDonation)
			r.Post("/opening-balances", cfg.PostingHandler.CreateOpeningBalance)
			r.Post("/adjustments", cfg.PostingHandler.CreateAdjustment)
			r.Get("/{id}", cfg.PostingHandler.Get)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByPosting)
			r.Post("/{id}/reverse", cfg.PostingHandler.Reverse)
		})

		r.Route("/owners/{owner}", func(r chi.Router) {
			r.Get("/balance", cfg.BalanceHandler.Balance)
			r.Get("/position", cfg.BalanceHandler.Position)
			r.Get("/spendable", cfg.BalanceHandler.Spendable)
			r.Get("/can-spend", cfg.BalanceHandler.CanSpend)
			r.Get("/receivables", cfg.BalanceHandler.Receivables)
			r.Get("/entries", cfg.EntryHandler.ListByOwner)
			r.Get("/summary", cfg.BalanceHandler.Summary)
		})

		r.Route("/periods/{owner}", func(r chi.Router) {
			r.Get("/", cfg.PeriodHandler.List)
			r.Get("/{year}/{month}", cfg.PeriodHandler.Get)
			r.Post("/{year}/{month}/close", cfg.PeriodHandler.Close)
			r.Post("/{year}/{month}/reopen", cfg.PeriodHandler.Reopen)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/reconciliation", cfg.LedgerHandler.Reconcile)
		})
	})

	return r
}
