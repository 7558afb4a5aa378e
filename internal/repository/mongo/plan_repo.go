package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "workout_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	items      *mongo.Collection
	sessions   *mongo.Collection
	workouts   *mongo.Collection
}

// NewMongoPlanRepository creates a new WorkoutPlan repository.
func NewMongoPlanRepository(client *mongo.Client, db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		client:     client,
		collection: db.Collection(planCollectionName),
		items:      db.Collection(planItemCollectionName),
		sessions:   db.Collection(sessionCollectionName),
		workouts:   db.Collection(workoutLogCollectionName),
	}
}

// Create inserts a new workout plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan requires userId and title")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return primitive.NilObjectID, err
	}
	return plan.ID, nil
}

func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByIDForUser folds the ownership check into the lookup.
func (r *mongoPlanRepository) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *mongoPlanRepository) findOne(ctx context.Context, filter bson.M) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	if err := r.collection.FindOne(ctx, filter).Decode(&plan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByUser returns the user's plans, newest first.
func (r *mongoPlanRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *mongoPlanRepository) ListAll(ctx context.Context) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := make([]domain.WorkoutPlan, 0)
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("workout plan ID is required for update")
	}

	filter := bson.M{"_id": plan.ID, "userId": plan.UserID}
	update := bson.M{
		"$set": bson.M{
			"title":                  plan.Title,
			"goalText":               plan.GoalText,
			"frequencyPerWeek":       plan.FrequencyPerWeek,
			"sessionDurationMinutes": plan.SessionDurationMinutes,
			"updatedAt":              time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(plan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes the plan, its items and sessions, and unlinks its workout logs.
func (r *mongoPlanRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		result, err := r.collection.DeleteOne(sc, bson.M{"_id": id, "userId": userID})
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return repository.ErrNotFound
		}
		if _, err := r.items.DeleteMany(sc, bson.M{"planId": id}); err != nil {
			return fmt.Errorf("delete plan items: %w", err)
		}
		if _, err := r.sessions.DeleteMany(sc, bson.M{"planId": id}); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if _, err := r.workouts.UpdateMany(sc, bson.M{"planId": id}, bson.M{"$unset": bson.M{"planId": ""}}); err != nil {
			return fmt.Errorf("unlink workout logs: %w", err)
		}
		return nil
	})
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := db.Collection(planCollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", planCollectionName, err)
	}
	return nil
}
