package cache

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/metrics"

	"github.com/coocood/freecache"
)

const defaultLocalSize = 8 * 1024 * 1024

// NewLocalExerciseCache keeps cached exercises in process memory.
func NewLocalExerciseCache(sizeBytes int, ttl time.Duration, m *metrics.Manager) ExerciseCache {
	if sizeBytes <= 0 {
		sizeBytes = defaultLocalSize
	}
	return &jsonCache{store: &localStore{cache: freecache.NewCache(sizeBytes)}, ttl: ttl, metrics: m}
}

type localStore struct {
	cache *freecache.Cache
}

func (s *localStore) get(_ context.Context, key string) ([]byte, error) {
	return s.cache.Get([]byte(key))
}

func (s *localStore) set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	return s.cache.Set([]byte(key), val, int(ttl.Seconds()))
}

func (s *localStore) del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Del([]byte(k))
	}
	return nil
}
