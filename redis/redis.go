package redis

import (
	"context"
	"fmt"
	"time"

	"template-mailer/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient connects to redis and pings it. Sessions, OAuth state and the
// send rate limiter all live there, so a failed ping is fatal for callers.
func NewClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddress, err)
	}

	log.Info("redis connected", zap.String("addr", cfg.RedisAddress))
	return client, nil
}
