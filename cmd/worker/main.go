package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Alejob60/meta-agent/internal/actions"
	"github.com/Alejob60/meta-agent/internal/agents"
	"github.com/Alejob60/meta-agent/internal/config"
	"github.com/Alejob60/meta-agent/internal/logging"
	redisrepo "github.com/Alejob60/meta-agent/internal/repository/redis"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// The worker drains the per-target action streams the server publishes to
// and delivers each envelope to the downstream service for its action type.
func main() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redisrepo.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	registry := agents.NewRegistry()
	schemas := actions.NewRegistry()
	targets := map[string][]string{}
	for actionType, endpoint := range cfg.Agents.Endpoints {
		registry.Register(agents.NewWebhookExecutor(actionType, endpoint, cfg.Agents.APIKey))
		// consume the stream of the target this action type routes to
		target := schemas.DefaultTarget(actionType)
		targets[target] = append(targets[target], actionType)
	}

	if len(targets) == 0 {
		log.Fatal().Msg("no agent endpoints configured")
	}

	log.Info().
		Str("group", cfg.Agents.Group).
		Str("consumer", cfg.Agents.Consumer).
		Int("targets", len(targets)).
		Msg("starting action worker")

	var wg sync.WaitGroup
	for target := range targets {
		stream := cfg.Dispatch.StreamPrefix + target

		consumer, err := redisrepo.NewStreamConsumer(ctx, redisClient, stream, cfg.Agents.Group, cfg.Agents.Consumer)
		if err != nil {
			log.Fatal().Err(err).Str("stream", stream).Msg("failed to create stream consumer")
		}

		wg.Add(1)
		go func(stream string) {
			defer wg.Done()
			consume(ctx, consumer, registry, stream)
		}(stream)
	}

	wg.Wait()
	log.Info().Msg("worker stopped")
}

func consume(ctx context.Context, consumer *redisrepo.StreamConsumer, registry *agents.Registry, stream string) {
	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := consumer.Read(ctx, 16)
		if err != nil {
			if ctx.Err() != nil || err == redis.ErrClosed {
				return
			}
			log.Error().Err(err).Str("stream", stream).Msg("stream read failed")
			continue
		}

		for _, msg := range messages {
			executor, err := registry.Get(msg.Envelope.Action.Type)
			if err != nil {
				// Unknown type: ack and drop so the stream keeps moving
				log.Warn().
					Str("type", msg.Envelope.Action.Type).
					Str("correlation_id", msg.Envelope.CorrelationID).
					Msg("no executor for action type, dropping")
				_ = consumer.Ack(ctx, msg.ID)
				continue
			}

			if err := executor.Execute(ctx, &msg.Envelope); err != nil {
				log.Error().
					Err(err).
					Str("type", msg.Envelope.Action.Type).
					Str("correlation_id", msg.Envelope.CorrelationID).
					Msg("action delivery failed")
				// Not acked: the entry stays pending for redelivery
				continue
			}

			if err := consumer.Ack(ctx, msg.ID); err != nil {
				log.Warn().Err(err).Str("id", msg.ID).Msg("failed to ack stream entry")
			}

			log.Info().
				Str("type", msg.Envelope.Action.Type).
				Str("correlation_id", msg.Envelope.CorrelationID).
				Msg("action delivered")
		}
	}
}
