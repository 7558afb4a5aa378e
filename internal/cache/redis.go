package cache

import (
	"context"
	"errors"
	"time"

	"athlos/fitness-tracker/internal/metrics"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// NewRedisExerciseCache shares cached exercises between server instances.
func NewRedisExerciseCache(client *redis.Client, ttl time.Duration, m *metrics.Manager) ExerciseCache {
	return &jsonCache{store: &redisStore{client: client}, ttl: ttl, metrics: m}
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, error) {
	return s.client.Get(ctx, key).Bytes()
}

func (s *redisStore) set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, val, ttl).Err()
}

func (s *redisStore) del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil) || errors.Is(err, freecache.ErrNotFound)
}

func logCacheErr(op string, err error) {
	log.WithError(err).Warnf("exercise cache: %s", op)
}
