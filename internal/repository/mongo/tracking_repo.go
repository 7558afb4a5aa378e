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

const (
	workoutLogCollectionName = "workout_logs"
	weightLogCollectionName  = "weight_logs"
	goalCollectionName       = "goals"
)

// findAll decodes every document matching filter into T.
func findAll[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findByID decodes the document matching filter, mapping no documents to ErrNotFound.
func findByID[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	if err := collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func deleteOwned(ctx context.Context, collection *mongo.Collection, id, userID primitive.ObjectID) error {
	result, err := collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var newestLogFirst = bson.D{{Key: "logDate", Value: -1}, {Key: "_id", Value: -1}}

// mongoWorkoutLogRepository implements repository.WorkoutLogRepository
type mongoWorkoutLogRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutLogRepository(db *mongo.Database) repository.WorkoutLogRepository {
	return &mongoWorkoutLogRepository{collection: db.Collection(workoutLogCollectionName)}
}

func (r *mongoWorkoutLogRepository) Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, log); err != nil {
		return primitive.NilObjectID, err
	}
	return log.ID, nil
}

func (r *mongoWorkoutLogRepository) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutLog, error) {
	return findByID[domain.WorkoutLog](ctx, r.collection, bson.M{"_id": id, "userId": userID})
}

func (r *mongoWorkoutLogRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	return findAll[domain.WorkoutLog](ctx, r.collection, bson.M{"userId": userID}, newestLogFirst)
}

func (r *mongoWorkoutLogRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return deleteOwned(ctx, r.collection, id, userID)
}

// mongoWeightLogRepository implements repository.WeightLogRepository
type mongoWeightLogRepository struct {
	collection *mongo.Collection
}

func NewMongoWeightLogRepository(db *mongo.Database) repository.WeightLogRepository {
	return &mongoWeightLogRepository{collection: db.Collection(weightLogCollectionName)}
}

func (r *mongoWeightLogRepository) Create(ctx context.Context, log *domain.WeightLog) (primitive.ObjectID, error) {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, log); err != nil {
		return primitive.NilObjectID, err
	}
	return log.ID, nil
}

func (r *mongoWeightLogRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightLog, error) {
	return findAll[domain.WeightLog](ctx, r.collection, bson.M{"userId": userID}, newestLogFirst)
}

func (r *mongoWeightLogRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return deleteOwned(ctx, r.collection, id, userID)
}

// mongoGoalRepository implements repository.GoalRepository
type mongoGoalRepository struct {
	collection *mongo.Collection
}

func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{collection: db.Collection(goalCollectionName)}
}

func (r *mongoGoalRepository) Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, goal); err != nil {
		return primitive.NilObjectID, err
	}
	return goal.ID, nil
}

func (r *mongoGoalRepository) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Goal, error) {
	return findByID[domain.Goal](ctx, r.collection, bson.M{"_id": id, "userId": userID})
}

func (r *mongoGoalRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	return findAll[domain.Goal](ctx, r.collection, bson.M{"userId": userID},
		bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *mongoGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	update := bson.M{
		"$set": bson.M{
			"type":        goal.Type,
			"targetValue": goal.TargetValue,
			"deadline":    goal.Deadline,
			"exerciseId":  goal.ExerciseID,
			"updatedAt":   time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": goal.ID, "userId": goal.UserID}, update, opts).Decode(goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *mongoGoalRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return deleteOwned(ctx, r.collection, id, userID)
}

func (r *mongoGoalRepository) DetachExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"exerciseId": exerciseID},
		bson.M{"$unset": bson.M{"exerciseId": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureTrackingIndexes indexes logs and goals by owner.
func EnsureTrackingIndexes(ctx context.Context, db *mongo.Database) error {
	byUserAndDate := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "logDate", Value: -1}}}
	for _, name := range []string{workoutLogCollectionName, weightLogCollectionName} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, byUserAndDate); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	if _, err := db.Collection(workoutLogCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "planId", Value: 1}},
		Options: options.Index().SetSparse(true),
	}); err != nil {
		return fmt.Errorf("create %s indexes: %w", workoutLogCollectionName, err)
	}
	if _, err := db.Collection(goalCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create %s indexes: %w", goalCollectionName, err)
	}
	return nil
}
