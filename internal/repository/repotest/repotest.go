// Package repotest holds the behaviour every repository backend must share.
// Backends run it from their own tests against a fresh store.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/ordering"
	"athlos/fitness-tracker/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Run executes every conformance test against repos.
func Run(t *testing.T, repos *repository.Repositories) {
	t.Run("ItemScenarios", func(t *testing.T) { testItemScenarios(t, repos) })
	t.Run("OwnerScoping", func(t *testing.T) { testOwnerScoping(t, repos) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, repos) })
	t.Run("ConcurrentWriters", func(t *testing.T) { testConcurrentWriters(t, repos) })
	t.Run("PlanDeleteCascades", func(t *testing.T) { testPlanDeleteCascades(t, repos) })
	t.Run("ExerciseReferences", func(t *testing.T) { testExerciseReferences(t, repos) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, repos) })
	t.Run("Uniqueness", func(t *testing.T) { testUniqueness(t, repos) })
}

func newUser(t *testing.T, repos *repository.Repositories) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        gofakeit.Email(),
		Name:         gofakeit.Name(),
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderplacehold",
	}
	_, err := repos.Users.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func newPlan(t *testing.T, repos *repository.Repositories, owner *domain.User) *domain.WorkoutPlan {
	t.Helper()
	p := &domain.WorkoutPlan{UserID: owner.ID, Title: gofakeit.HipsterWord(), FrequencyPerWeek: 3, SessionDurationMinutes: 45}
	_, err := repos.Plans.Create(context.Background(), p)
	require.NoError(t, err)
	return p
}

func newExercise(t *testing.T, repos *repository.Repositories) *domain.Exercise {
	t.Helper()
	e := &domain.Exercise{Name: fmt.Sprintf("%s %s", gofakeit.Verb(), gofakeit.UUID()), Difficulty: "Beginner"}
	_, err := repos.Exercises.Create(context.Background(), e)
	require.NoError(t, err)
	return e
}

// addItems appends one item per note.
func addItems(t *testing.T, repos *repository.Repositories, plan *domain.WorkoutPlan, notes ...string) {
	t.Helper()
	err := repos.PlanItems.WithPlanTx(context.Background(), plan.ID, plan.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
		for _, n := range notes {
			if _, err := ordering.Insert(ctx, tx, &domain.PlanItem{Notes: n}, nil); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func positions(t *testing.T, repos *repository.Repositories, planID primitive.ObjectID) map[string]int {
	t.Helper()
	items, err := repos.PlanItems.ListByPlan(context.Background(), planID)
	require.NoError(t, err)
	require.NoError(t, ordering.Verify(items))
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Notes] = it.Position
	}
	return out
}

func itemByNote(ctx context.Context, tx repository.PlanItemTx, note string) (*domain.PlanItem, error) {
	items, err := tx.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Notes == note {
			return tx.GetByID(ctx, it.ID)
		}
	}
	return nil, repository.ErrNotFound
}

func testItemScenarios(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)

	plan := newPlan(t, repos, owner)
	addItems(t, repos, plan, "A", "B", "C", "D")
	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, owner.ID, func(ctx context.Context, tx repository.PlanItemTx) error {
		c, err := itemByNote(ctx, tx, "C")
		if err != nil {
			return err
		}
		res, err := ordering.Reposition(ctx, tx, c, 1)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, res.Shifted)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 2, "B": 3, "C": 1, "D": 4}, positions(t, repos, plan.ID))

	plan = newPlan(t, repos, owner)
	addItems(t, repos, plan, "A", "B", "C")
	err = repos.PlanItems.WithPlanTx(ctx, plan.ID, owner.ID, func(ctx context.Context, tx repository.PlanItemTx) error {
		at := 2
		_, err := ordering.Insert(ctx, tx, &domain.PlanItem{Notes: "X"}, &at)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 1, "X": 2, "B": 3, "C": 4}, positions(t, repos, plan.ID))

	plan = newPlan(t, repos, owner)
	addItems(t, repos, plan, "A", "B", "C", "D")
	err = repos.PlanItems.WithPlanTx(ctx, plan.ID, owner.ID, func(ctx context.Context, tx repository.PlanItemTx) error {
		b, err := itemByNote(ctx, tx, "B")
		if err != nil {
			return err
		}
		_, err = ordering.Remove(ctx, tx, b)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 1, "C": 2, "D": 3}, positions(t, repos, plan.ID))

	item, err := repos.PlanItems.GetByPosition(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "C", item.Notes)
	_, err = repos.PlanItems.GetByPosition(ctx, plan.ID, 4)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	plan = newPlan(t, repos, owner)
	addItems(t, repos, plan, "only")
	assert.Equal(t, map[string]int{"only": 1}, positions(t, repos, plan.ID))
}

func testOwnerScoping(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner, stranger := newUser(t, repos), newUser(t, repos)
	plan := newPlan(t, repos, owner)

	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, stranger.ID, func(context.Context, repository.PlanItemTx) error {
		return errors.New("must not run")
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repos.Plans.GetByIDForUser(ctx, plan.ID, stranger.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repos.Plans.Delete(ctx, plan.ID, stranger.ID), repository.ErrNotFound)
}

func testRollback(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	plan := newPlan(t, repos, owner)
	addItems(t, repos, plan, "A", "B")

	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, owner.ID, func(ctx context.Context, tx repository.PlanItemTx) error {
		at := 1
		if _, err := ordering.Insert(ctx, tx, &domain.PlanItem{Notes: "X"}, &at); err != nil {
			return err
		}
		tooFar := 9
		_, err := ordering.Insert(ctx, tx, &domain.PlanItem{Notes: "Y"}, &tooFar)
		return err
	})
	require.ErrorIs(t, err, ordering.ErrInvalidPosition)
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, positions(t, repos, plan.ID))
}

// testConcurrentWriters inserts at the head of one plan from many goroutines.
// Backends that detect rather than queue conflicts report ErrConflict; the
// writer then retries, as a caller would.
func testConcurrentWriters(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	plan := newPlan(t, repos, owner)

	const writers = 12
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for attempt := 0; attempt < 50; attempt++ {
				err := repos.PlanItems.WithPlanTx(ctx, plan.ID, owner.ID, func(ctx context.Context, tx repository.PlanItemTx) error {
					at := 1
					_, err := ordering.Insert(ctx, tx, &domain.PlanItem{Notes: fmt.Sprintf("w%d", i)}, &at)
					return err
				})
				if errors.Is(err, repository.ErrConflict) {
					time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
					continue
				}
				assert.NoError(t, err)
				return
			}
			t.Errorf("writer %d gave up", i)
		}(i)
	}
	wg.Wait()

	got := positions(t, repos, plan.ID)
	assert.Len(t, got, writers)
}

func testPlanDeleteCascades(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	plan := newPlan(t, repos, owner)
	addItems(t, repos, plan, "A", "B")

	log := &domain.WorkoutLog{UserID: owner.ID, PlanID: &plan.ID, LogDate: domain.DateOnly(time.Now())}
	_, err := repos.Workouts.Create(ctx, log)
	require.NoError(t, err)
	_, err = repos.Sessions.Create(ctx, &domain.WorkoutSession{UserID: owner.ID, PlanID: plan.ID, CurrentIndex: 1})
	require.NoError(t, err)

	require.NoError(t, repos.Plans.Delete(ctx, plan.ID, owner.ID))

	items, err := repos.PlanItems.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	stored, err := repos.Workouts.GetByIDForUser(ctx, log.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PlanID)

	_, err = repos.Sessions.GetActive(ctx, owner.ID, plan.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repos.Plans.GetByID(ctx, plan.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testExerciseReferences(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	plan := newPlan(t, repos, owner)
	ex := newExercise(t, repos)

	err := repos.PlanItems.WithPlanTx(ctx, plan.ID, owner.ID, func(ctx context.Context, tx repository.PlanItemTx) error {
		_, err := ordering.Insert(ctx, tx, &domain.PlanItem{ExerciseID: &ex.ID, Notes: "ref"}, nil)
		return err
	})
	require.NoError(t, err)
	goal := &domain.Goal{UserID: owner.ID, Type: domain.GoalTypeExercise, TargetValue: 20, ExerciseID: &ex.ID}
	_, err = repos.Goals.Create(ctx, goal)
	require.NoError(t, err)

	ids, err := repos.PlanItems.PlanIDsByExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{plan.ID}, ids)

	n, err := repos.PlanItems.DetachExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repos.Goals.DetachExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	item, err := repos.PlanItems.GetByPosition(ctx, plan.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, item.ExerciseID)
	storedGoal, err := repos.Goals.GetByIDForUser(ctx, goal.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, storedGoal.ExerciseID)

	require.NoError(t, repos.Exercises.Delete(ctx, ex.ID))
	assert.ErrorIs(t, repos.Exercises.Delete(ctx, ex.ID), repository.ErrNotFound)
}

func testSessions(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	plan := newPlan(t, repos, owner)

	sess := &domain.WorkoutSession{UserID: owner.ID, PlanID: plan.ID, CurrentIndex: 1}
	_, err := repos.Sessions.Create(ctx, sess)
	require.NoError(t, err)

	_, err = repos.Sessions.Create(ctx, &domain.WorkoutSession{UserID: owner.ID, PlanID: plan.ID, CurrentIndex: 1})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	active, err := repos.Sessions.GetActive(ctx, owner.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, active.ID)

	entry := func(notes string) *domain.WorkoutLog {
		return &domain.WorkoutLog{UserID: owner.ID, PlanID: &plan.ID, LogDate: time.Now().UTC().Truncate(24 * time.Hour), Notes: notes}
	}

	// A failed write stores neither the new index nor the log.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, repos.Sessions.AdvanceWithLog(canceled, sess.ID, 1, entry("lost")))
	stored, err := repos.Sessions.GetByIDForUser(ctx, sess.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentIndex)

	require.NoError(t, repos.Sessions.AdvanceWithLog(ctx, sess.ID, 1, entry("first")))
	require.ErrorIs(t, repos.Sessions.AdvanceWithLog(ctx, sess.ID, 1, entry("stale")), repository.ErrConflict)
	require.ErrorIs(t, repos.Sessions.AdvanceWithLog(ctx, primitive.NewObjectID(), 1, entry("ghost")), repository.ErrNotFound)

	require.NoError(t, repos.Sessions.FinishWithLog(ctx, sess.ID, time.Now().UTC(), entry("finished")))
	require.ErrorIs(t, repos.Sessions.FinishWithLog(ctx, sess.ID, time.Now().UTC(), entry("twice")), repository.ErrConflict)

	logs, err := repos.Workouts.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	notes := make([]string, 0, len(logs))
	for _, l := range logs {
		notes = append(notes, l.Notes)
	}
	assert.ElementsMatch(t, []string{"first", "finished"}, notes)

	stored, err = repos.Sessions.GetByIDForUser(ctx, sess.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	assert.Equal(t, 2, stored.CurrentIndex)

	_, err = repos.Sessions.Create(ctx, &domain.WorkoutSession{UserID: owner.ID, PlanID: plan.ID, CurrentIndex: 1})
	require.NoError(t, err)
}

func testUniqueness(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()
	u := newUser(t, repos)
	_, err := repos.Users.Create(ctx, &domain.User{Email: u.Email, PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	e := newExercise(t, repos)
	_, err = repos.Exercises.Create(ctx, &domain.Exercise{Name: e.Name})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
