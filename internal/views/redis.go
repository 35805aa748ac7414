// SPDX-License-Identifier: MIT

package views

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisDedup shares the dedup window across instances using SET NX PX.
// Redis owns expiry, so no sweep is needed.
type RedisDedup struct {
	client *redis.Client
	logger zerolog.Logger
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisDedup connects to Redis and verifies the connection.
func NewRedisDedup(cfg RedisConfig, logger zerolog.Logger) (*RedisDedup, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis dedup store")

	return &RedisDedup{client: client, logger: logger}, nil
}

func dedupRedisKey(channelID, fingerprint string) string {
	return "viewgate:dedup:" + channelID + ":" + fingerprint
}

// Claim implements DedupStore. SET NX succeeds only for the first caller
// within the window, which makes the claim atomic across instances.
func (r *RedisDedup) Claim(ctx context.Context, channelID, fingerprint string, now time.Time, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, dedupRedisKey(channelID, fingerprint), now.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return ok, nil
}

func (r *RedisDedup) Close() error {
	return r.client.Close()
}
