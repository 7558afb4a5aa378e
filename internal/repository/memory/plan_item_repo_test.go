package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/ordering"
	"athlos/fitness-tracker/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newPlan(t *testing.T, repos *repository.Repositories) *domain.WorkoutPlan {
	t.Helper()
	plan := &domain.WorkoutPlan{UserID: primitive.NewObjectID(), Title: "push day"}
	_, err := repos.Plans.Create(context.Background(), plan)
	require.NoError(t, err)
	return plan
}

func TestWithPlanTx_ScopedToOwner(t *testing.T) {
	repos := NewRepositories(NewStore())
	plan := newPlan(t, repos)

	called := false
	err := repos.PlanItems.WithPlanTx(context.Background(), plan.ID, primitive.NewObjectID(), func(context.Context, repository.PlanItemTx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, called)

	err = repos.PlanItems.WithPlanTx(context.Background(), primitive.NewObjectID(), plan.UserID, func(context.Context, repository.PlanItemTx) error {
		return nil
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithPlanTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	plan := newPlan(t, repos)

	boom := errors.New("boom")
	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, plan.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
		if _, err := ordering.Insert(ctx, tx, &domain.PlanItem{Notes: "A"}, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	items, err := repos.PlanItems.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWithPlanTx_ConcurrentInsertsStayDense(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	plan := newPlan(t, repos)
	other := newPlan(t, repos)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := plan
			if i%5 == 0 {
				target = other
			}
			pos := 1
			err := repos.PlanItems.WithPlanTx(ctx, target.ID, target.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
				_, err := ordering.Insert(ctx, tx, &domain.PlanItem{}, &pos)
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	items, err := repos.PlanItems.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, items, 40)
	assert.NoError(t, ordering.Verify(items))

	items, err = repos.PlanItems.ListByPlan(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.NoError(t, ordering.Verify(items))

	stored, err := repos.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), stored.ItemsVersion)
}

func TestPlanDelete_Cascades(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	plan := newPlan(t, repos)

	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, plan.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
		_, err := ordering.Insert(ctx, tx, &domain.PlanItem{}, nil)
		return err
	})
	require.NoError(t, err)

	log := &domain.WorkoutLog{UserID: plan.UserID, PlanID: &plan.ID}
	_, err = repos.Workouts.Create(ctx, log)
	require.NoError(t, err)
	_, err = repos.Sessions.Create(ctx, &domain.WorkoutSession{UserID: plan.UserID, PlanID: plan.ID, CurrentIndex: 1})
	require.NoError(t, err)

	require.ErrorIs(t, repos.Plans.Delete(ctx, plan.ID, primitive.NewObjectID()), repository.ErrNotFound)
	require.NoError(t, repos.Plans.Delete(ctx, plan.ID, plan.UserID))

	items, err := repos.PlanItems.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	stored, err := repos.Workouts.GetByIDForUser(ctx, log.ID, plan.UserID)
	require.NoError(t, err)
	assert.Nil(t, stored.PlanID)

	_, err = repos.Sessions.GetActive(ctx, plan.UserID, plan.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDetachExercise(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	plan := newPlan(t, repos)
	exerciseID := primitive.NewObjectID()

	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, plan.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
		if _, err := ordering.Insert(ctx, tx, &domain.PlanItem{ExerciseID: &exerciseID}, nil); err != nil {
			return err
		}
		_, err := ordering.Insert(ctx, tx, &domain.PlanItem{}, nil)
		return err
	})
	require.NoError(t, err)

	ids, err := repos.PlanItems.PlanIDsByExercise(ctx, exerciseID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{plan.ID}, ids)

	n, err := repos.PlanItems.DetachExercise(ctx, exerciseID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	item, err := repos.PlanItems.GetByPosition(ctx, plan.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, item.ExerciseID)
}

func TestSessions_AdvanceAndFinish(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	userID, planID := primitive.NewObjectID(), primitive.NewObjectID()

	sess := &domain.WorkoutSession{UserID: userID, PlanID: planID, CurrentIndex: 1}
	_, err := repos.Sessions.Create(ctx, sess)
	require.NoError(t, err)

	_, err = repos.Sessions.Create(ctx, &domain.WorkoutSession{UserID: userID, PlanID: planID, CurrentIndex: 1})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	entry := func() *domain.WorkoutLog { return &domain.WorkoutLog{UserID: userID, PlanID: &planID} }

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, repos.Sessions.AdvanceWithLog(canceled, sess.ID, 1, entry()), context.Canceled)
	logs, err := repos.Workouts.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	require.NoError(t, repos.Sessions.AdvanceWithLog(ctx, sess.ID, 1, entry()))
	require.ErrorIs(t, repos.Sessions.AdvanceWithLog(ctx, sess.ID, 1, entry()), repository.ErrConflict)

	require.NoError(t, repos.Sessions.FinishWithLog(ctx, sess.ID, sess.StartedAt, entry()))
	require.ErrorIs(t, repos.Sessions.FinishWithLog(ctx, sess.ID, sess.StartedAt, entry()), repository.ErrConflict)

	logs, err = repos.Workouts.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, err = repos.Sessions.Create(ctx, &domain.WorkoutSession{UserID: userID, PlanID: planID, CurrentIndex: 1})
	require.NoError(t, err)
}
