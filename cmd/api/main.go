package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/adapter/bus"
	httpHandler "ticketing-payment-core/internal/adapter/http/handler"
	"ticketing-payment-core/internal/adapter/provider"
	pgStorage "ticketing-payment-core/internal/adapter/storage/postgres"
	redisStorage "ticketing-payment-core/internal/adapter/storage/redis"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/metrics"
	"ticketing-payment-core/internal/resilience"
	"ticketing-payment-core/internal/service"
	"ticketing-payment-core/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Ticketing Payment Core")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize Kafka producer
	producer, err := bus.NewSyncProducer(cfg.Kafka, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Kafka")
	}
	defer producer.Close()
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka connected")

	// Metrics
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize repositories
	intentRepo := pgStorage.NewPaymentIntentRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	webhookRepo := pgStorage.NewWebhookEventRepo(pool)
	outboxRepo := pgStorage.NewOutboxRepo(pool)
	opsRepo := pgStorage.NewRecoveryOperationRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	dlq := redisStorage.NewDeadLetterQueue(rdb)

	// Provider client behind the resilience stack
	providerClient := provider.NewClient(provider.Config{
		BaseURL:      cfg.Provider.BaseURL,
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
	}, &http.Client{Timeout: cfg.Provider.CallTimeout}, log)

	registry2 := resilience.NewRegistry(resilience.BreakerSettings{
		FailureRatio: cfg.Breaker.FailureRatio,
		Window:       cfg.Breaker.Window,
		MinRequests:  cfg.Breaker.MinRequests,
		ResetTimeout: cfg.Breaker.ResetTimeout,
		CallTimeout:  cfg.Provider.CallTimeout,
	}, m)
	retry := resilience.NewRetryPolicy(resilience.NewClassifier(), resilience.RetrySettings{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}, m, log)
	caller := resilience.NewCaller(registry2, retry, m, log)

	// Initialize business services
	guard := service.NewIdempotencyGuard(idempotencyRepo, idempotencyCache, cfg.Idempotency, log)
	ledger := service.NewLedgerService(intentRepo, refundRepo, outboxRepo, transactor, guard, providerClient, caller, log)
	inbox := service.NewInboxService(webhookRepo, ledger, transactor, dlq, m, log)

	publisher := bus.NewPublisher(producer, cfg.Kafka.Topic, log)
	outboxPublisher := service.NewOutboxPublisher(outboxRepo, transactor, publisher, cfg.Outbox, m, log)

	recovery := service.NewRecoveryService(
		dlq, opsRepo, auditRepo, idempotencyRepo, outboxRepo,
		transactor, inbox, cfg.Recovery, cfg.Outbox.Retention, m, log,
	)

	// Health monitoring over every external dependency
	monitor := service.NewHealthMonitor([]ports.HealthChecker{
		pgStorage.NewHealthCheck(pool),
		redisStorage.NewHealthCheck(rdb),
		providerClient,
	}, cfg.Health, m, log)

	// Background loops
	go outboxPublisher.Run(ctx)
	go recovery.Run(ctx)
	go monitor.Run(ctx)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:        ledger,
		IntentRepo:    intentRepo,
		RefundRepo:    refundRepo,
		Inbox:         inbox,
		HealthMonitor: monitor,
		Registry:      registry,
		Logger:        log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
