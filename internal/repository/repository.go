package repository

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/ordering"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = RepositoryError("not found")
	// ErrConflict means a concurrent writer touched the same plan or session.
	// The caller may retry the whole request.
	ErrConflict  = RepositoryError("concurrent modification")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Users     UserRepository
	Exercises ExerciseRepository
	Plans     PlanRepository
	PlanItems PlanItemRepository
	Workouts  WorkoutLogRepository
	Weights   WeightLogRepository
	Goals     GoalRepository
	Sessions  WorkoutSessionRepository
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) // ErrDuplicate on email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for interacting with the exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) // ErrDuplicate on name
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByName(ctx context.Context, name string) (*domain.Exercise, error)
	List(ctx context.Context) ([]domain.Exercise, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository stores workout plans. Methods taking a userID only see that user's plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	// GetByID is unscoped; it serves admin tooling only.
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	ListAll(ctx context.Context) ([]domain.WorkoutPlan, error)
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	// Delete removes the plan together with its items and sessions, and
	// clears the plan reference of workout logs, in one transaction.
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// PlanItemRepository gives access to a plan's ordered items.
type PlanItemRepository interface {
	// WithPlanTx locks the plan owned by ownerID and runs fn inside one
	// transaction. A plan that does not exist or belongs to someone else is
	// ErrNotFound. fn's error rolls everything back and is returned as is.
	WithPlanTx(ctx context.Context, planID, ownerID primitive.ObjectID, fn func(ctx context.Context, tx PlanItemTx) error) error
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error)
	GetByPosition(ctx context.Context, planID primitive.ObjectID, position int) (*domain.PlanItem, error)
	// DetachExercise clears the exercise reference of every item pointing at exerciseID.
	DetachExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error)
	PlanIDsByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// PlanItemTx is the unit of work handed to WithPlanTx. Every call is bound
// to the locked plan; items of other plans are invisible.
type PlanItemTx interface {
	ordering.ListStore
	Plan() *domain.WorkoutPlan
	GetByID(ctx context.Context, itemID primitive.ObjectID) (*domain.PlanItem, error)
	GetByPosition(ctx context.Context, position int) (*domain.PlanItem, error)
	// UpdatePayload writes the non-positional fields of item.
	UpdatePayload(ctx context.Context, item *domain.PlanItem) error
}

type WorkoutLogRepository interface {
	Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error)
	GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutLog, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

type WeightLogRepository interface {
	Create(ctx context.Context, log *domain.WeightLog) (primitive.ObjectID, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightLog, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error)
	GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Goal, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error)
	Update(ctx context.Context, goal *domain.Goal) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DetachExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error)
}

// WorkoutSessionRepository stores workout mode sessions. At most one session
// per user and plan is active (not ended); Create reports ErrDuplicate otherwise.
type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	GetActive(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutSession, error)
	// AdvanceWithLog moves CurrentIndex from `from` to from+1 and stores entry,
	// both or neither. It is ErrConflict when the session was advanced or
	// finished in the meantime.
	AdvanceWithLog(ctx context.Context, id primitive.ObjectID, from int, entry *domain.WorkoutLog) error
	// FinishWithLog sets EndedAt and stores entry, both or neither. It is
	// ErrConflict when the session already ended.
	FinishWithLog(ctx context.Context, id primitive.ObjectID, endedAt time.Time, entry *domain.WorkoutLog) error
}
