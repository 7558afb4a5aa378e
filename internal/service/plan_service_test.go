package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPlanService_Scenarios(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Squat")

	t.Run("reposition to the front", func(t *testing.T) {
		planID := env.plan(t, user)
		ids := env.addItems(t, user, planID, ex, "A", "B", "C")

		it, err := env.plans.UpdateItem(ctx, user, planID, ids["C"], domain.PlanItemFields{Notes: "C"}, intPtr(1))
		require.NoError(t, err)
		assert.Equal(t, 1, it.Position)
		assert.Equal(t, []string{"C", "A", "B"}, env.order(t, user, planID))
	})

	t.Run("insert in the middle", func(t *testing.T) {
		planID := env.plan(t, user)
		env.addItems(t, user, planID, ex, "A", "B", "C")

		it, err := env.plans.AddItem(ctx, user, planID, ex, domain.PlanItemFields{Notes: "X"}, intPtr(2))
		require.NoError(t, err)
		assert.Equal(t, 2, it.Position)
		assert.Equal(t, []string{"A", "X", "B", "C"}, env.order(t, user, planID))
	})

	t.Run("remove compacts", func(t *testing.T) {
		planID := env.plan(t, user)
		ids := env.addItems(t, user, planID, ex, "A", "B", "C")

		require.NoError(t, env.plans.RemoveItem(ctx, user, planID, ids["B"]))
		assert.Equal(t, []string{"A", "C"}, env.order(t, user, planID))
	})

	t.Run("first item of an empty plan", func(t *testing.T) {
		planID := env.plan(t, user)
		it, err := env.plans.AddItem(ctx, user, planID, ex, domain.PlanItemFields{Notes: "A"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, it.Position)
		assert.Equal(t, planID, it.PlanID)
	})
}

func TestPlanService_InvalidPositionChangesNothing(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Lunge")
	planID := env.plan(t, user)
	ids := env.addItems(t, user, planID, ex, "A", "B")

	_, err := env.plans.AddItem(ctx, user, planID, ex, domain.PlanItemFields{Notes: "X"}, intPtr(4))
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = env.plans.AddItem(ctx, user, planID, ex, domain.PlanItemFields{Notes: "X"}, intPtr(0))
	assert.ErrorIs(t, err, ErrInvalidPosition)

	// Payload and move share one transaction: a bad move keeps the old payload.
	_, err = env.plans.UpdateItem(ctx, user, planID, ids["A"], domain.PlanItemFields{Notes: "changed"}, intPtr(3))
	assert.ErrorIs(t, err, ErrInvalidPosition)

	assert.Equal(t, []string{"A", "B"}, env.order(t, user, planID))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CounterPlanItemOps.WithLabelValues("insert", metrics.ResultError)))
}

func TestPlanService_UpdatePayloadOnly(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Plank")
	planID := env.plan(t, user)
	ids := env.addItems(t, user, planID, ex, "A", "B")

	it, err := env.plans.UpdateItem(ctx, user, planID, ids["B"], domain.PlanItemFields{Sets: intPtr(3), Notes: "B"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Position)
	require.NotNil(t, it.Sets)
	assert.Equal(t, 3, *it.Sets)

	_, err = env.plans.UpdateItem(ctx, user, planID, ids["B"], domain.PlanItemFields{Reps: intPtr(-1)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlanService_NotFound(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	ex := env.exercise(t, "Burpee")
	planID := env.plan(t, owner)
	ids := env.addItems(t, owner, planID, ex, "A")

	_, err := env.plans.AddItem(ctx, stranger, planID, ex, domain.PlanItemFields{}, nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.ErrorIs(t, env.plans.RemoveItem(ctx, stranger, planID, ids["A"]), ErrPlanNotFound)
	_, err = env.plans.ListItems(ctx, stranger, planID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = env.plans.GetPlan(ctx, stranger, planID)
	assert.True(t, IsNotFound(err))

	_, err = env.plans.AddItem(ctx, owner, planID, primitive.NewObjectID(), domain.PlanItemFields{}, nil)
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	assert.ErrorIs(t, env.plans.RemoveItem(ctx, owner, planID, primitive.NewObjectID()), ErrPlanItemNotFound)
	_, err = env.plans.UpdateItem(ctx, owner, planID, primitive.NewObjectID(), domain.PlanItemFields{}, intPtr(1))
	assert.ErrorIs(t, err, ErrPlanItemNotFound)

	// An item of another plan is not reachable through this one.
	otherPlan := env.plan(t, owner)
	assert.ErrorIs(t, env.plans.RemoveItem(ctx, owner, otherPlan, ids["A"]), ErrPlanItemNotFound)
	assert.Equal(t, []string{"A"}, env.order(t, owner, planID))
}

func TestPlanService_CRUD(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Deadlift")

	_, err := env.plans.CreatePlan(ctx, user, PlanInput{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	planID := env.plan(t, user)
	env.addItems(t, user, planID, ex, "A", "B")

	updated, err := env.plans.UpdatePlan(ctx, user, planID, PlanInput{Title: "Pull day", FrequencyPerWeek: 2})
	require.NoError(t, err)
	assert.Equal(t, "Pull day", updated.Title)

	got, err := env.plans.GetPlan(ctx, user, planID)
	require.NoError(t, err)
	assert.Equal(t, "Pull day", got.Title)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "A", got.Items[0].Notes)

	plans, err := env.plans.ListPlans(ctx, user)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	_, err = env.tracking.CreateWorkoutLog(ctx, user, WorkoutLogInput{PlanID: &planID, LogDate: got.CreatedAt})
	require.NoError(t, err)

	assert.ErrorIs(t, env.plans.DeletePlan(ctx, primitive.NewObjectID(), planID), ErrPlanNotFound)
	require.NoError(t, env.plans.DeletePlan(ctx, user, planID))
	_, err = env.plans.ListItems(ctx, user, planID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	logs, err := env.tracking.ListWorkoutLogs(ctx, user)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].PlanID)
}

func TestPlanService_VerifyAndRepair(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Row")
	planID := env.plan(t, user)
	env.addItems(t, user, planID, ex, "A", "B", "C")
	env.plan(t, primitive.NewObjectID())

	reports, err := env.plans.VerifyPlans(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.NoError(t, r.Err)
	}

	res, err := env.plans.RepairPlan(ctx, planID)
	require.NoError(t, err)
	assert.Zero(t, res.Shifted)
	assert.Equal(t, 3, res.Position)

	_, err = env.plans.RepairPlan(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanService_ConcurrentInsertsStayDense(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Jump Rope")
	planID := env.plan(t, user)
	env.addItems(t, user, planID, ex, "seed")

	const writers = 30
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pos := intPtr(1)
			if i%2 == 0 {
				pos = nil
			}
			_, err := env.plans.AddItem(ctx, user, planID, ex, domain.PlanItemFields{Notes: "w"}, pos)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.False(t, errors.Is(err, ErrInvalidPosition))
		require.NoError(t, err)
	}

	assert.Len(t, env.order(t, user, planID), writers+1)
	assert.Equal(t, float64(writers+1), testutil.ToFloat64(env.metrics.CounterPlanItemOps.WithLabelValues("insert", metrics.ResultOK)))
}

// conflictingPlanItems loses every item transaction to a concurrent writer.
type conflictingPlanItems struct {
	repository.PlanItemRepository
}

func (conflictingPlanItems) WithPlanTx(context.Context, primitive.ObjectID, primitive.ObjectID, func(context.Context, repository.PlanItemTx) error) error {
	return fmt.Errorf("%w: write conflict on plan", repository.ErrConflict)
}

func TestPlanService_ConflictIsReported(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Squat")
	planID := env.plan(t, user)
	ids := env.addItems(t, user, planID, ex, "A", "B")

	svc := NewPlanService(env.repos.Plans, conflictingPlanItems{env.repos.PlanItems}, env.exercises, env.metrics)

	_, err := svc.AddItem(ctx, user, planID, ex, domain.PlanItemFields{Notes: "C"}, nil)
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.UpdateItem(ctx, user, planID, ids["B"], domain.PlanItemFields{Notes: "B"}, intPtr(1))
	require.ErrorIs(t, err, ErrConflict)
	assert.False(t, IsNotFound(err))
	require.ErrorIs(t, svc.RemoveItem(ctx, user, planID, ids["A"]), ErrConflict)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterPlanItemOps.WithLabelValues("insert", metrics.ResultConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterPlanItemOps.WithLabelValues("reposition", metrics.ResultConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterPlanItemOps.WithLabelValues("remove", metrics.ResultConflict)))

	// Nothing was written.
	assert.Equal(t, []string{"A", "B"}, env.order(t, user, planID))
}
