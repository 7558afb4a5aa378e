package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// writeConflictCode is returned when two transactions write the same document.
const writeConflictCode = 112

// ConnectDB establishes a connection to MongoDB using the provided URI.
// Item transactions need a replica set (a single-node one is enough).
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	// Connect does not talk to the server yet.
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary so an unreachable server fails here and not on the first query.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second) // Shorter timeout for ping
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		// Don't leak the client's background monitors.
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx) // ignored, the ping error is returned
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// NewRepositories returns every repository backed by db.
func NewRepositories(client *mongo.Client, db *mongo.Database) *repository.Repositories {
	return &repository.Repositories{
		Users:     NewMongoUserRepository(db),
		Exercises: NewMongoExerciseRepository(db),
		Plans:     NewMongoPlanRepository(client, db),
		PlanItems: NewMongoPlanItemRepository(client, db),
		Workouts:  NewMongoWorkoutLogRepository(db),
		Weights:   NewMongoWeightLogRepository(db),
		Goals:     NewMongoGoalRepository(db),
		Sessions:  NewMongoSessionRepository(client, db),
	}
}

// EnsureIndexes creates the indexes of every collection. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ensure := []func(context.Context, *mongo.Database) error{
		EnsureUserIndexes,
		EnsureExerciseIndexes,
		EnsurePlanIndexes,
		EnsurePlanItemIndexes,
		EnsureTrackingIndexes,
		EnsureSessionIndexes,
	}
	for _, fn := range ensure {
		if err := fn(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// withTransaction runs fn in a snapshot transaction. There is no retry: a
// transient failure surfaces as repository.ErrConflict.
func withTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}

	sc := mongo.NewSessionContext(ctx, sess)
	if err := fn(sc); err != nil {
		_ = sess.AbortTransaction(context.Background())
		return mapTxnError(err)
	}
	if err := sess.CommitTransaction(context.Background()); err != nil {
		_ = sess.AbortTransaction(context.Background())
		return mapTxnError(err)
	}
	return nil
}

func mapTxnError(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(writeConflictCode)) {
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	return err
}
