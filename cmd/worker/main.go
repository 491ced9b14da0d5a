package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ayurmed/hms-api/internal/config"
	"github.com/ayurmed/hms-api/internal/repository"
	"github.com/ayurmed/hms-api/internal/repository/postgres"
	"github.com/ayurmed/hms-api/pkg/logger"
	redisbroker "github.com/ayurmed/hms-api/pkg/messaging/redis"
	"github.com/ayurmed/hms-api/pkg/metrics"
	"github.com/ayurmed/hms-api/pkg/worker"
)

// The worker drains the outbox written by the API. It needs the durable
// backend: with the in-memory store there is no shared outbox to drain.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	outboxRepo, err := buildOutboxRepository(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize outbox repository")
	}

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{Channel: cfg.Redis.Channel},
		logger.NewLogger(nil),
		metrics.NewMetrics("ayurmed", "worker"),
	)

	startMetricsServer(cfg.Server.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()
}

// startMetricsServer exposes the worker's metrics and liveness on a
// side port so the scraper and orchestrator can reach them.
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Fatal().Err(err).Msg("metrics server failed")
		}
	}()
}

func buildOutboxRepository(cfg *config.Config) (repository.OutboxRepository, error) {
	if cfg.Store.Backend != "postgres" {
		return nil, fmt.Errorf("worker requires the postgres backend, got %q", cfg.Store.Backend)
	}
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	return postgres.NewOutboxRepository(db), nil
}
