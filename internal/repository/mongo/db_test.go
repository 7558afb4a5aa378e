//go:build integration_test || all_tests

package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/repository/repotest"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestConformance runs against a single-node replica set, the smallest
// deployment that supports transactions.
func TestConformance(t *testing.T) {
	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not create new dockertest pool")
	require.NoError(t, dockerPool.Client.Ping(), "could not ping docker")

	resource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
		Cmd:        []string{"--replSet", "rs0", "--bind_ip_all"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "run mongo")
	t.Cleanup(func() {
		if err := resource.Close(); err != nil {
			t.Logf("mongo teardown: %s", err)
		}
	})

	port := resource.GetPort("27017/tcp")
	require.NoError(t, dockerPool.Retry(func() error {
		direct, err := ConnectDB(fmt.Sprintf("mongodb://localhost:%s/?directConnection=true", port))
		if err != nil {
			return err
		}
		defer DisconnectDB(direct)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = direct.Database("admin").RunCommand(ctx, bson.D{
			{Key: "replSetInitiate", Value: bson.M{
				"_id":     "rs0",
				"members": bson.A{bson.M{"_id": 0, "host": "localhost:27017"}},
			}},
		}).Err()
		var cmdErr mongo.CommandError
		if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Name == "AlreadyInitialized") {
			return err
		}
		return nil
	}), "initiate replica set")

	var client *mongo.Client
	require.NoError(t, dockerPool.Retry(func() error {
		var err error
		client, err = ConnectDB(fmt.Sprintf("mongodb://localhost:%s/?directConnection=true", port))
		if err != nil {
			return err
		}
		// Wait for the node to become primary.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var hello bson.M
		if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
			_ = DisconnectDB(client)
			return err
		}
		if primary, _ := hello["isWritablePrimary"].(bool); !primary {
			_ = DisconnectDB(client)
			return fmt.Errorf("node is not primary yet")
		}
		return nil
	}), "connect to mongo")
	t.Cleanup(func() { _ = DisconnectDB(client) })

	db := client.Database("athlos_test")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, EnsureIndexes(ctx, db))

	repotest.Run(t, NewRepositories(client, db))
}
