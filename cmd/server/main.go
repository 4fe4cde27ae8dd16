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

	httpAdapter "github.com/iho/finmodel/internal/adapter/http"
	"github.com/iho/finmodel/internal/adapter/http/handler"
	"github.com/iho/finmodel/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/finmodel/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/finmodel/internal/adapter/repository/redis"
	"github.com/iho/finmodel/internal/infrastructure/config"
	"github.com/iho/finmodel/internal/infrastructure/eventpublisher"
	"github.com/iho/finmodel/internal/infrastructure/logger"
	"github.com/iho/finmodel/internal/infrastructure/metrics"
	"github.com/iho/finmodel/internal/infrastructure/postgres"
	"github.com/iho/finmodel/internal/infrastructure/redis"
	"github.com/iho/finmodel/internal/infrastructure/scheduler"
	"github.com/iho/finmodel/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		return err
	}

	// Connect to PostgreSQL
	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLifetime,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClientWithConfig(ctx, redis.ClientConfig{
		RedisURL:     cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New(nil)

	// Initialize repositories
	inputRepo := postgresRepo.NewInputRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)

	// Initialize use cases
	validationUC := usecase.NewValidationUseCase(inputRepo)
	calculationUC := usecase.NewCalculationUseCase(usecase.CalculationConfig{
		Validator:      validationUC,
		TxManager:      postgresRepo.NewTxManager(pool),
		RunRepo:        postgresRepo.NewRunRepository(pool),
		OutboxRepo:     outboxRepo,
		AuditRepo:      postgresRepo.NewAuditRepository(pool),
		Locker:         redisRepo.NewRunLocker(redisClient, cfg.RunLockTTL),
		Cache:          redisRepo.NewOutputCache(redisClient, cfg.OutputCacheTTL),
		Retrier:        postgresRepo.NewRetrier(log),
		IDGen:          postgresRepo.NewULIDGenerator(),
		Metrics:        m,
		Logger:         log,
		DefaultHorizon: cfg.DefaultHorizonMonths,
	})

	// Outbox relay
	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  newEventSink(cfg, redisClient, log),
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.EventBatchSize,
		Interval:   cfg.EventPollInterval,
	})
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Start(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithHitCounter(m.RateLimitHits)

	// Background jobs
	jobs, err := newScheduler(cfg, log, calculationUC, outboxRepo, limiter)
	if err != nil {
		stopRelay()
		return err
	}
	jobs.Start()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		CalculationHandler: handler.NewCalculationHandler(calculationUC, validationUC),
		RunHandler:         handler.NewRunHandler(calculationUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        limiter,
		Logger:             log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	jobs.Stop()
	calculationUC.Wait()
	stopRelay()
	<-relayDone

	log.Info().Msg("server stopped")
	return nil
}

// newEventSink publishes to Redis when a channel is configured and only
// logs events otherwise.
func newEventSink(cfg *config.Config, client *goredis.Client, log zerolog.Logger) eventpublisher.Publisher {
	if cfg.EventChannel == "" {
		return eventpublisher.NewLogPublisher(log)
	}
	return redisRepo.NewPublisher(client, cfg.EventChannel)
}

func newScheduler(
	cfg *config.Config,
	log zerolog.Logger,
	reaper scheduler.StaleRunReaper,
	outbox scheduler.OutboxPurger,
	limiter *middleware.RateLimiter,
) (*scheduler.Scheduler, error) {
	s := scheduler.New(log, time.Minute)

	if err := s.AddJob(cfg.ReaperSchedule, &scheduler.ReapStaleRunsJob{
		Reaper:     reaper,
		StaleAfter: cfg.RunStaleAfter,
		Logger:     log,
	}); err != nil {
		return nil, err
	}

	if err := s.AddJob(cfg.OutboxPurgeSchedule, &scheduler.PurgeOutboxJob{
		Outbox:    outbox,
		Retention: cfg.OutboxRetention,
	}); err != nil {
		return nil, err
	}

	if err := s.AddJob("@every 10m", scheduler.FuncJob{
		JobName: "cleanup_rate_limiters",
		Fn: func(context.Context) error {
			limiter.CleanupLimiters()
			return nil
		},
	}); err != nil {
		return nil, err
	}

	return s, nil
}
