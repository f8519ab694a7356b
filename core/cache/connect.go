package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/taskbot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	opTimeout      = 2 * time.Second
)

// Connect builds a Redis client and verifies it with PING.
func Connect(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	start := time.Now()
	attrs := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.Int("db", cfg.DB),
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error(ctx, "cache", "cache.connect", append(attrs,
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("took", logger.Took(start)),
		)...)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "cache", "cache.connect", append(attrs,
		slog.String("status", "ok"),
		slog.Duration("took", logger.Took(start)),
	)...)
	return client, nil
}
