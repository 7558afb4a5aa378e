// Package bootstrap wires the configured storage backend and caches. It is
// shared by the API server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"

	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/repository"
	"athlos/fitness-tracker/internal/repository/memory"
	"athlos/fitness-tracker/internal/repository/mongo"
	"athlos/fitness-tracker/internal/repository/postgres"

	log "github.com/sirupsen/logrus"
)

// Backend is an opened storage backend.
type Backend struct {
	Driver string
	Repos  *repository.Repositories
	// Migrate creates indexes (mongo) or the schema (postgres). It is idempotent.
	Migrate func(ctx context.Context) error
	Close   func() error
}

// OpenBackend connects to the database selected by cfg.Driver.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.Name)
		log.Infof("mongo connected, database %s", cfg.Name)
		return &Backend{
			Driver: cfg.Driver,
			Repos:  mongo.NewRepositories(client, db),
			Migrate: func(ctx context.Context) error {
				return mongo.EnsureIndexes(ctx, db)
			},
			Close: func() error { return mongo.DisconnectDB(client) },
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.NewPoolParams{
			DSN:      cfg.PostgresDSN,
			MaxConns: cfg.PostgresMaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("postgres connected")
		return &Backend{
			Driver: cfg.Driver,
			Repos:  postgres.NewRepositories(pool),
			Migrate: func(ctx context.Context) error {
				return postgres.Migrate(ctx, pool)
			},
			Close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverMemory:
		log.Warn("using the in-memory store, data is lost on exit")
		return &Backend{
			Driver:  cfg.Driver,
			Repos:   memory.NewRepositories(memory.NewStore()),
			Migrate: func(context.Context) error { return nil },
			Close:   func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
