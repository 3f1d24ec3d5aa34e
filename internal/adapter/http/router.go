package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/escrowledger/internal/adapter/http/handler"
	"github.com/iho/escrowledger/internal/adapter/http/middleware"
	"github.com/iho/escrowledger/internal/infrastructure/metrics"
	"github.com/iho/escrowledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EscrowHandler    *handler.EscrowHandler
	LedgerHandler    *handler.LedgerHandler
	CustodyHandler   *handler.CustodyHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	Metrics          *metrics.Metrics
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
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and telemetry endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Escrow references
		r.Route("/escrows", func(r chi.Router) {
			r.Post("/", cfg.EscrowHandler.CreatePrefund)
			r.Get("/{reference}", cfg.EscrowHandler.Get)
			r.Post("/{reference}/invoice", cfg.EscrowHandler.Invoice)
			r.Post("/{reference}/settle", cfg.EscrowHandler.Settle)
			r.Post("/{reference}/release", cfg.EscrowHandler.Release)
			r.Post("/{reference}/reclaim", cfg.EscrowHandler.Reclaim)
		})

		// Per-identity ledger views
		r.Route("/identities/{identity}", func(r chi.Router) {
			r.Get("/escrows", cfg.EscrowHandler.ListByOwner)
			r.Get("/accounts", cfg.LedgerHandler.ListAccounts)
			r.Post("/accounts/seed", cfg.LedgerHandler.SeedBalance)
			r.Get("/accounts/{account}/balance", cfg.LedgerHandler.GetBalance)
			r.Get("/accounts/{account}/postings", cfg.LedgerHandler.ListPostings)
			r.Get("/accounts/{account}/postings/{index}", cfg.LedgerHandler.GetPosting)
		})

		// Ledger-wide views and operations
		r.Get("/accounts/{account}/balance", cfg.LedgerHandler.GetGlobalBalance)
		r.Post("/seed-recipes", cfg.LedgerHandler.SeedRecipes)
		r.Post("/fees", cfg.LedgerHandler.PostFee)

		// Custody funding
		r.Route("/custody/{account}", func(r chi.Router) {
			r.Post("/deposit", cfg.CustodyHandler.Deposit)
			r.Get("/balance", cfg.CustodyHandler.GetBalance)
		})
	})

	return r
}
