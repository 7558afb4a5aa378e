//go:build integration_test || all_tests

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/repository/repotest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not create new dockertest pool")
	require.NoError(t, dockerPool.Client.Ping(), "could not ping docker")

	pgResource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=athlos",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "run postgres")
	t.Cleanup(func() {
		if err := pgResource.Close(); err != nil {
			t.Logf("postgres teardown: %s", err)
		}
	})

	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/athlos?sslmode=disable", pgResource.GetPort("5432/tcp"))
	var db *pgxpool.Pool
	require.NoError(t, dockerPool.Retry(func() error {
		var err error
		db, err = NewPool(ctx, NewPoolParams{DSN: dsn})
		return err
	}), "connect to db")
	t.Cleanup(db.Close)

	require.NoError(t, Migrate(ctx, db))
	// Migrate is idempotent.
	require.NoError(t, Migrate(ctx, db))

	repotest.Run(t, NewRepositories(db))
}
