package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayurmed/hms-api/internal/config"
	"github.com/ayurmed/hms-api/internal/model"
	redisbroker "github.com/ayurmed/hms-api/pkg/messaging/redis"
)

// Subscribes to the lifecycle event channel and logs each event as it
// arrives. Operational tool for watching what the worker publishes.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     2,
		MinIdleConns: 1,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := broker.Subscribe(ctx, cfg.Redis.Channel)
	if err != nil {
		log.Fatal().Err(err).Str("channel", cfg.Redis.Channel).Msg("failed to subscribe")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	log.Info().Str("channel", cfg.Redis.Channel).Msg("tailing events")
	for raw := range messages {
		var event model.OutboxEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Warn().Err(err).Str("payload", string(raw)).Msg("unparseable event")
			continue
		}
		log.Info().
			Str("event_id", event.ID.String()).
			Str("event_type", event.EventType).
			RawJSON("payload", event.Payload).
			Msg("event")
	}
}
