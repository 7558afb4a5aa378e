package mongo

import (
	"context"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "workout_sessions"

// sessionDocument carries an "active" marker that only running sessions have,
// so a partial unique index can allow one running session per user and plan.
type sessionDocument struct {
	domain.WorkoutSession `bson:",inline"`
	Active                bool `bson:"active,omitempty"`
}

// mongoSessionRepository implements repository.WorkoutSessionRepository
type mongoSessionRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logs       *mongo.Collection
}

// NewMongoSessionRepository needs the client because session writes and their
// workout log commit in one transaction.
func NewMongoSessionRepository(client *mongo.Client, db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoSessionRepository{
		client:     client,
		collection: db.Collection(sessionCollectionName),
		logs:       db.Collection(workoutLogCollectionName),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	doc := sessionDocument{WorkoutSession: *session, Active: session.EndedAt == nil}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return session.ID, nil
}

func (r *mongoSessionRepository) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return findByID[domain.WorkoutSession](ctx, r.collection, bson.M{"_id": id, "userId": userID})
}

func (r *mongoSessionRepository) GetActive(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return findByID[domain.WorkoutSession](ctx, r.collection, bson.M{"userId": userID, "planId": planID, "active": true})
}

func (r *mongoSessionRepository) AdvanceWithLog(ctx context.Context, id primitive.ObjectID, from int, entry *domain.WorkoutLog) error {
	return r.updateWithLog(ctx, id, entry,
		bson.M{"_id": id, "active": true, "currentIndex": from},
		bson.M{"$inc": bson.M{"currentIndex": 1}},
	)
}

func (r *mongoSessionRepository) FinishWithLog(ctx context.Context, id primitive.ObjectID, endedAt time.Time, entry *domain.WorkoutLog) error {
	// Dropping "active" takes the session out of the partial unique index.
	return r.updateWithLog(ctx, id, entry,
		bson.M{"_id": id, "active": true},
		bson.M{"$set": bson.M{"endedAt": endedAt}, "$unset": bson.M{"active": ""}},
	)
}

// updateWithLog applies update to the session matched by filter and inserts
// entry in the same transaction. No match rolls back the insert.
func (r *mongoSessionRepository) updateWithLog(ctx context.Context, id primitive.ObjectID, entry *domain.WorkoutLog, filter, update bson.M) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		result, err := r.collection.UpdateOne(sc, filter, update)
		if err != nil {
			return err
		}
		if result.MatchedCount == 0 {
			return r.missOrConflict(sc, id)
		}
		if _, err := r.logs.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert workout log: %w", err)
		}
		return nil
	})
}

func (r *mongoSessionRepository) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// EnsureSessionIndexes allows at most one active session per user and plan.
func EnsureSessionIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "planId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_session").
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys: bson.D{{Key: "planId", Value: 1}},
		},
	}
	if _, err := db.Collection(sessionCollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", sessionCollectionName, err)
	}
	return nil
}
