// Package cache keeps read copies of the exercise library, which changes
// rarely and is read on every plan item add.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	listKey          = "exercises::all"
	exerciseKeyPrefx = "exercise::"
)

// ExerciseCache is a best-effort cache: misses and backend failures look the
// same to the caller, which then reads the repository.
type ExerciseCache interface {
	GetList(ctx context.Context) ([]domain.Exercise, bool)
	SetList(ctx context.Context, list []domain.Exercise)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, bool)
	Set(ctx context.Context, exercise *domain.Exercise)
	// Invalidate drops the entry for id and the cached list.
	Invalidate(ctx context.Context, id primitive.ObjectID)
}

func exerciseKey(id primitive.ObjectID) string {
	return exerciseKeyPrefx + id.Hex()
}

// byteStore is what the redis and freecache backends have in common.
type byteStore interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	del(ctx context.Context, keys ...string) error
}

// jsonCache implements ExerciseCache over a byteStore.
type jsonCache struct {
	store   byteStore
	ttl     time.Duration
	metrics *metrics.Manager
}

func (c *jsonCache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.CounterCacheLookups.WithLabelValues(outcome).Inc()
	}
}

func (c *jsonCache) GetList(ctx context.Context) ([]domain.Exercise, bool) {
	var list []domain.Exercise
	if !c.load(ctx, listKey, &list) {
		return nil, false
	}
	return list, true
}

func (c *jsonCache) SetList(ctx context.Context, list []domain.Exercise) {
	c.save(ctx, listKey, list)
}

func (c *jsonCache) Get(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, bool) {
	var e domain.Exercise
	if !c.load(ctx, exerciseKey(id), &e) {
		return nil, false
	}
	return &e, true
}

func (c *jsonCache) Set(ctx context.Context, exercise *domain.Exercise) {
	c.save(ctx, exerciseKey(exercise.ID), exercise)
}

func (c *jsonCache) Invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := c.store.del(ctx, exerciseKey(id), listKey); err != nil {
		logCacheErr("invalidate", err)
	}
}

func (c *jsonCache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.store.get(ctx, key)
	if err != nil {
		if !isMiss(err) {
			logCacheErr("get "+key, err)
			c.observe("error")
		} else {
			c.observe("miss")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logCacheErr("decode "+key, err)
		c.observe("error")
		return false
	}
	c.observe("hit")
	return true
}

func (c *jsonCache) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logCacheErr("encode "+key, err)
		return
	}
	if err := c.store.set(ctx, key, data, c.ttl); err != nil {
		logCacheErr("set "+key, err)
	}
}

// Nop never caches anything.
type Nop struct{}

func (Nop) GetList(context.Context) ([]domain.Exercise, bool)                { return nil, false }
func (Nop) SetList(context.Context, []domain.Exercise)                       {}
func (Nop) Get(context.Context, primitive.ObjectID) (*domain.Exercise, bool) { return nil, false }
func (Nop) Set(context.Context, *domain.Exercise)                            {}
func (Nop) Invalidate(context.Context, primitive.ObjectID)                   {}
