package redis

import (
	"context"
	"fmt"

	"github.com/Alejob60/meta-agent/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient creates a new redis client and verifies connectivity
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
