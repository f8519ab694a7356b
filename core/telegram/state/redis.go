package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/taskbot/core/logger"
)

// DefaultKeyPrefix namespaces session documents in Redis.
const DefaultKeyPrefix = "session:"

// RedisOptions configures RedisStore.
type RedisOptions struct {
	KeyPrefix string
	// TTL is refreshed on every write; 0 keeps documents until deleted.
	TTL time.Duration
	// OpTimeout bounds each Redis round trip.
	OpTimeout time.Duration
}

// RedisStore keeps each session as a JSON document under <prefix><userID>.
type RedisStore[T any] struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisStore constructs a Redis-backed Store.
func NewRedisStore[T any](client *redis.Client, opts RedisOptions) *RedisStore[T] {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 2 * time.Second
	}
	return &RedisStore[T]{client: client, opts: opts}
}

func (s *RedisStore[T]) key(userID int64) string {
	return s.opts.KeyPrefix + strconv.FormatInt(userID, 10)
}

// Get loads and decodes the user's session document.
func (s *RedisStore[T]) Get(ctx context.Context, userID int64) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()

	var doc T
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		logger.Debug(ctx, "session", "session.get", slog.String("cache", "miss"))
		return doc, nil
	case err != nil:
		return doc, fmt.Errorf("session get: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt document is treated as lost state.
		logger.Warn(ctx, "session", "session.decode_failed", slog.String("err", err.Error()))
		var zero T
		return zero, nil
	}
	logger.Debug(ctx, "session", "session.get", slog.String("cache", "hit"))
	return doc, nil
}

// Update merges mutate into the stored document and writes it back.
func (s *RedisStore[T]) Update(ctx context.Context, userID int64, mutate func(*T)) error {
	doc, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	mutate(&doc)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(userID), data, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

// Delete drops the user's session document.
func (s *RedisStore[T]) Delete(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
