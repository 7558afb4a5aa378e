package bootstrap

import (
	"context"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_Memory(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBackend(ctx, config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.NoError(t, b.Migrate(ctx))

	_, err = b.Repos.Exercises.Create(ctx, &domain.Exercise{Name: "Plank"})
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	_, err := OpenBackend(context.Background(), config.DatabaseConfig{Driver: "sqlite"})
	assert.Error(t, err)
}

func TestRedisDisabled(t *testing.T) {
	rdb, err := NewRedisClient(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	c := NewExerciseCache(config.CacheConfig{ExerciseTTL: time.Minute}, nil, nil)
	assert.NotNil(t, c)
}
