package service

import (
	"context"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTrackingService_WorkoutLogs(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	planID := env.plan(t, user)
	when := time.Date(2025, 10, 3, 18, 30, 0, 0, time.UTC)

	_, err := env.tracking.CreateWorkoutLog(ctx, user, WorkoutLogInput{Notes: "no date"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.tracking.CreateWorkoutLog(ctx, stranger, WorkoutLogInput{PlanID: &planID, LogDate: when})
	assert.ErrorIs(t, err, ErrPlanNotFound)

	entry, err := env.tracking.CreateWorkoutLog(ctx, user, WorkoutLogInput{PlanID: &planID, LogDate: when, Notes: "legs"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC), entry.LogDate)

	got, err := env.tracking.GetWorkoutLog(ctx, user, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "legs", got.Notes)

	_, err = env.tracking.GetWorkoutLog(ctx, stranger, entry.ID)
	assert.ErrorIs(t, err, ErrWorkoutLogNotFound)
	assert.ErrorIs(t, env.tracking.DeleteWorkoutLog(ctx, stranger, entry.ID), ErrWorkoutLogNotFound)

	require.NoError(t, env.tracking.DeleteWorkoutLog(ctx, user, entry.ID))
	logs, err := env.tracking.ListWorkoutLogs(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestTrackingService_WeightLogs(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()

	_, err := env.tracking.CreateWeightLog(ctx, user, time.Now(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	w, err := env.tracking.CreateWeightLog(ctx, user, time.Now(), 72.5)
	require.NoError(t, err)

	list, err := env.tracking.ListWeightLogs(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 72.5, list[0].Weight)

	assert.ErrorIs(t, env.tracking.DeleteWeightLog(ctx, primitive.NewObjectID(), w.ID), ErrWeightLogNotFound)
	require.NoError(t, env.tracking.DeleteWeightLog(ctx, user, w.ID))
}

func TestTrackingService_Goals(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user := primitive.NewObjectID()
	ex := env.exercise(t, "Pull-Up")
	missing := primitive.NewObjectID()

	_, err := env.tracking.CreateGoal(ctx, user, GoalInput{Type: "strength", TargetValue: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.tracking.CreateGoal(ctx, user, GoalInput{Type: domain.GoalTypeExercise, TargetValue: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.tracking.CreateGoal(ctx, user, GoalInput{Type: domain.GoalTypeExercise, TargetValue: 10, ExerciseID: &missing})
	assert.ErrorIs(t, err, ErrExerciseNotFound)
	_, err = env.tracking.CreateGoal(ctx, user, GoalInput{Type: domain.GoalTypeWeight, TargetValue: 70, ExerciseID: &ex})
	assert.ErrorIs(t, err, ErrInvalidInput)

	deadline := time.Now().Add(30 * 24 * time.Hour).UTC()
	goal, err := env.tracking.CreateGoal(ctx, user, GoalInput{Type: domain.GoalTypeWeight, TargetValue: 70, Deadline: &deadline})
	require.NoError(t, err)

	updated, err := env.tracking.UpdateGoal(ctx, user, goal.ID, GoalInput{Type: domain.GoalTypeExercise, TargetValue: 15, ExerciseID: &ex})
	require.NoError(t, err)
	assert.Equal(t, domain.GoalTypeExercise, updated.Type)
	assert.Nil(t, updated.Deadline)

	_, err = env.tracking.UpdateGoal(ctx, primitive.NewObjectID(), goal.ID, GoalInput{Type: domain.GoalTypeWeight, TargetValue: 1})
	assert.ErrorIs(t, err, ErrGoalNotFound)

	goals, err := env.tracking.ListGoals(ctx, user)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, 15.0, goals[0].TargetValue)

	require.NoError(t, env.tracking.DeleteGoal(ctx, user, goal.ID))
	assert.ErrorIs(t, env.tracking.DeleteGoal(ctx, user, goal.ID), ErrGoalNotFound)
}
