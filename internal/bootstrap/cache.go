package bootstrap

import (
	"context"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/cache"
	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/metrics"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// NewRedisClient connects to redis, or returns nil when redis is disabled.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	log.Infof("redis connected: %s", cfg.Address)
	return client, nil
}

// NewExerciseCache prefers the shared redis cache and falls back to a local one.
func NewExerciseCache(cfg config.CacheConfig, rdb *redis.Client, m *metrics.Manager) cache.ExerciseCache {
	if rdb != nil {
		return cache.NewRedisExerciseCache(rdb, cfg.ExerciseTTL, m)
	}
	return cache.NewLocalExerciseCache(cfg.LocalSizeBytes, cfg.ExerciseTTL, m)
}
