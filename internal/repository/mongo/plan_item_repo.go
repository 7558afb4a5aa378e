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

const planItemCollectionName = "plan_items"

// mongoPlanItemRepository implements repository.PlanItemRepository.
// Positions are not covered by a unique index: the engine moves items through
// transient duplicates inside a transaction, and mongo checks unique indexes
// per write.
type mongoPlanItemRepository struct {
	client     *mongo.Client
	plans      *mongo.Collection
	collection *mongo.Collection
}

func NewMongoPlanItemRepository(client *mongo.Client, db *mongo.Database) repository.PlanItemRepository {
	return &mongoPlanItemRepository{
		client:     client,
		plans:      db.Collection(planCollectionName),
		collection: db.Collection(planItemCollectionName),
	}
}

// WithPlanTx bumps the plan's itemsVersion as the first write of the
// transaction. A second transaction on the same plan then fails with a write
// conflict instead of interleaving its shifts with ours.
func (r *mongoPlanItemRepository) WithPlanTx(ctx context.Context, planID, ownerID primitive.ObjectID, fn func(ctx context.Context, tx repository.PlanItemTx) error) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		var plan domain.WorkoutPlan
		err := r.plans.FindOneAndUpdate(sc,
			bson.M{"_id": planID, "userId": ownerID},
			bson.M{"$inc": bson.M{"itemsVersion": 1}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&plan)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("lock plan: %w", err)
		}
		return fn(sc, &mongoPlanTx{plan: plan, collection: r.collection})
	})
}

func (r *mongoPlanItemRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	return listItems(ctx, r.collection, planID)
}

func (r *mongoPlanItemRepository) GetByPosition(ctx context.Context, planID primitive.ObjectID, position int) (*domain.PlanItem, error) {
	return findItem(ctx, r.collection, bson.M{"planId": planID, "position": position})
}

func (r *mongoPlanItemRepository) DetachExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"exerciseId": exerciseID},
		bson.M{"$set": bson.M{"exerciseId": nil, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoPlanItemRepository) PlanIDsByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "planId", bson.M{"exerciseId": exerciseID})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func listItems(ctx context.Context, collection *mongo.Collection, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "createdAt", Value: 1}})

	cursor, err := collection.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]domain.PlanItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func findItem(ctx context.Context, collection *mongo.Collection, filter bson.M) (*domain.PlanItem, error) {
	var item domain.PlanItem
	if err := collection.FindOne(ctx, filter).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// mongoPlanTx scopes every query to one plan. ctx must be the session context.
type mongoPlanTx struct {
	plan       domain.WorkoutPlan
	collection *mongo.Collection
}

func (t *mongoPlanTx) Plan() *domain.WorkoutPlan {
	p := t.plan
	return &p
}

func (t *mongoPlanTx) Count(ctx context.Context) (int, error) {
	n, err := t.collection.CountDocuments(ctx, bson.M{"planId": t.plan.ID})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (t *mongoPlanTx) List(ctx context.Context) ([]domain.PlanItem, error) {
	return listItems(ctx, t.collection, t.plan.ID)
}

func (t *mongoPlanTx) GetByID(ctx context.Context, itemID primitive.ObjectID) (*domain.PlanItem, error) {
	return findItem(ctx, t.collection, bson.M{"_id": itemID, "planId": t.plan.ID})
}

func (t *mongoPlanTx) GetByPosition(ctx context.Context, position int) (*domain.PlanItem, error) {
	return findItem(ctx, t.collection, bson.M{"planId": t.plan.ID, "position": position})
}

func (t *mongoPlanTx) ShiftRange(ctx context.Context, lo, hi, delta int, exclude primitive.ObjectID) (int, error) {
	filter := bson.M{
		"planId":   t.plan.ID,
		"position": bson.M{"$gte": lo, "$lte": hi},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	update := bson.M{
		"$inc": bson.M{"position": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := t.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return int(result.ModifiedCount), nil
}

func (t *mongoPlanTx) Insert(ctx context.Context, item *domain.PlanItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	item.PlanID = t.plan.ID
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := t.collection.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (t *mongoPlanTx) SetPosition(ctx context.Context, itemID primitive.ObjectID, position int) error {
	return t.updateOne(ctx, itemID, bson.M{"position": position})
}

func (t *mongoPlanTx) UpdatePayload(ctx context.Context, item *domain.PlanItem) error {
	item.UpdatedAt = time.Now().UTC()
	return t.updateOne(ctx, item.ID, bson.M{
		"sets":            item.Sets,
		"reps":            item.Reps,
		"durationSeconds": item.DurationSeconds,
		"distanceMeters":  item.DistanceMeters,
		"notes":           item.Notes,
		"updatedAt":       item.UpdatedAt,
	})
}

func (t *mongoPlanTx) updateOne(ctx context.Context, itemID primitive.ObjectID, set bson.M) error {
	if _, ok := set["updatedAt"]; !ok {
		set["updatedAt"] = time.Now().UTC()
	}
	result, err := t.collection.UpdateOne(ctx, bson.M{"_id": itemID, "planId": t.plan.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t *mongoPlanTx) Delete(ctx context.Context, itemID primitive.ObjectID) error {
	result, err := t.collection.DeleteOne(ctx, bson.M{"_id": itemID, "planId": t.plan.ID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanItemIndexes creates the plan/position lookup index.
func EnsurePlanItemIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "exerciseId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := db.Collection(planItemCollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", planItemCollectionName, err)
	}
	return nil
}
