package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iho/escrowledger/internal/adapter/custody"
	httpAdapter "github.com/iho/escrowledger/internal/adapter/http"
	"github.com/iho/escrowledger/internal/adapter/http/handler"
	"github.com/iho/escrowledger/internal/adapter/repository/kv"
	kvmemory "github.com/iho/escrowledger/internal/adapter/repository/kv/memory"
	kvpostgres "github.com/iho/escrowledger/internal/adapter/repository/kv/postgres"
	redisRepo "github.com/iho/escrowledger/internal/adapter/repository/redis"
	"github.com/iho/escrowledger/internal/infrastructure/config"
	"github.com/iho/escrowledger/internal/infrastructure/entropy"
	"github.com/iho/escrowledger/internal/infrastructure/eventpublisher"
	"github.com/iho/escrowledger/internal/infrastructure/ids"
	"github.com/iho/escrowledger/internal/infrastructure/logger"
	"github.com/iho/escrowledger/internal/infrastructure/metrics"
	"github.com/iho/escrowledger/internal/infrastructure/period"
	"github.com/iho/escrowledger/internal/infrastructure/postgres"
	"github.com/iho/escrowledger/internal/infrastructure/redis"
	"github.com/iho/escrowledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()
	m := metrics.New()

	// Select the storage backend
	var (
		store kv.Store
		pool  *pgxpool.Pool
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to run migrations")
		}
		store = kvpostgres.NewStore(pool)
		appLogger.Info().Msg("using postgres storage")
	case "memory":
		store = kvmemory.NewStore()
		appLogger.Info().Msg("using in-memory storage")
	default:
		appLogger.Fatal().Str("backend", cfg.StorageBackend).Msg("unknown storage backend")
	}

	// Redis is optional; without it idempotency keys are not honored
	var (
		redisClient      *goredis.Client
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		appLogger.Info().Msg("connected to redis")
	}

	// Event delivery worker
	publisher := eventpublisher.NewPublisher(eventpublisher.Config{
		Sink:    eventpublisher.NewLogSink(appLogger),
		Logger:  appLogger,
		Metrics: m,
	})
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Repositories and collaborators
	balanceRepo := kv.NewBalanceRepository(store)
	postingRepo := kv.NewPostingRepository(store)
	escrowRepo := kv.NewEscrowRepository(store)
	custodySvc := custody.NewService(store)
	periods := period.NewWallClock(cfg.PeriodLength)
	seeds := entropy.NewCryptoSource()
	idGen := ids.NewULIDGenerator()

	// Use cases
	engine := usecase.NewPostingEngine(balanceRepo, postingRepo, periods, seeds, publisher, idGen, m, appLogger)
	registryUC := usecase.NewRegistryUseCase(engine, balanceRepo, postingRepo, m, appLogger)
	escrowUC := usecase.NewEscrowUseCase(engine, escrowRepo, custodySvc, periods, publisher, idGen, m, appLogger)

	// Handlers
	escrowHandler := handler.NewEscrowHandler(escrowUC)
	ledgerHandler := handler.NewLedgerHandler(registryUC, engine)
	custodyHandler := handler.NewCustodyHandler(custodySvc)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EscrowHandler:    escrowHandler,
		LedgerHandler:    ledgerHandler,
		CustodyHandler:   custodyHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		Metrics:          m,
		Logger:           appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// Let the publisher drain queued events
	stopPublisher()
	<-publisher.Done()

	appLogger.Info().Msg("server stopped")
}
