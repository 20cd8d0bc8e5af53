package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/missionledger/internal/adapter/http"
	"github.com/iho/missionledger/internal/adapter/http/handler"
	"github.com/iho/missionledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/missionledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/missionledger/internal/adapter/repository/redis"
	"github.com/iho/missionledger/internal/infrastructure/config"
	"github.com/iho/missionledger/internal/infrastructure/eventpublisher"
	"github.com/iho/missionledger/internal/infrastructure/logger"
	"github.com/iho/missionledger/internal/infrastructure/metrics"
	"github.com/iho/missionledger/internal/infrastructure/postgres"
	"github.com/iho/missionledger/internal/infrastructure/redis"
	"github.com/iho/missionledger/internal/usecase"
)

const limiterCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = l

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}

	l.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, l); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	l.Info().Msg("connected to postgres")

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		l.Info().Msg("connected to redis")
	} else {
		l.Warn().Msg("REDIS_URL empty, idempotency keys disabled")
	}

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	postingRepo := postgresRepo.NewPostingRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	periodRepo := postgresRepo.NewPeriodRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	locker := postgresRepo.NewOwnerLocker()
	retrier := postgresRepo.NewRetrier(l)
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	postingUC := usecase.NewPostingUseCase(
		txManager, postingRepo, entryRepo, balanceRepo, periodRepo, locker, outboxRepo, idGen,
		usecase.WithRetrier(retrier),
		usecase.WithMetrics(m),
		usecase.WithSpendGuard(cfg.EnforceSpendable),
	)
	periodUC := usecase.NewPeriodUseCase(txManager, periodRepo, entryRepo, balanceRepo, locker, outboxRepo, idGen, retrier, m)

	routerCfg := httpAdapter.RouterConfig{
		PostingHandler: handler.NewPostingHandler(postingUC),
		BalanceHandler: handler.NewBalanceHandler(usecase.NewBalanceUseCase(balanceRepo)),
		PeriodHandler:  handler.NewPeriodHandler(periodUC),
		EntryHandler:   handler.NewEntryHandler(usecase.NewEntryUseCase(entryRepo)),
		LedgerHandler:  handler.NewLedgerHandler(usecase.NewLedgerUseCase(ledgerRepo), usecase.NewReconciliationUseCase(ledgerRepo)),
		HealthHandler:  handler.NewHealthHandler(pool, redisClient),
		IdempotencyTTL: cfg.IdempotencyTTL,
		RateLimiter:    newRateLimiter(cfg, m),
		Metrics:        m,
		Logger:         l,
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(l),
		Metrics:    m,
		Logger:     l,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if routerCfg.RateLimiter != nil {
		g.Go(func() error {
			sweepLimiters(gctx, routerCfg.RateLimiter, limiterCleanupInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRateLimiter returns nil when rate limiting is disabled.
func newRateLimiter(cfg *config.Config, m *metrics.Metrics) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if m != nil {
		rl.WithHitCounter(m.RateLimitHits)
	}
	return rl
}

// sweepLimiters drops per-client limiters every interval until ctx ends.
func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters()
		}
	}
}
