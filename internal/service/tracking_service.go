package service

import (
	"context"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutLogInput describes a logged workout. PlanID is optional.
type WorkoutLogInput struct {
	PlanID  *primitive.ObjectID
	LogDate time.Time
	Notes   string
}

// GoalInput describes a goal. ExerciseID is required for exercise goals.
type GoalInput struct {
	Type        domain.GoalType
	TargetValue float64
	Deadline    *time.Time
	ExerciseID  *primitive.ObjectID
}

// TrackingService covers workout logs, weight logs and goals.
type TrackingService interface {
	CreateWorkoutLog(ctx context.Context, userID primitive.ObjectID, in WorkoutLogInput) (*domain.WorkoutLog, error)
	ListWorkoutLogs(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error)
	GetWorkoutLog(ctx context.Context, userID, id primitive.ObjectID) (*domain.WorkoutLog, error)
	DeleteWorkoutLog(ctx context.Context, userID, id primitive.ObjectID) error

	CreateWeightLog(ctx context.Context, userID primitive.ObjectID, logDate time.Time, weight float64) (*domain.WeightLog, error)
	ListWeightLogs(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightLog, error)
	DeleteWeightLog(ctx context.Context, userID, id primitive.ObjectID) error

	CreateGoal(ctx context.Context, userID primitive.ObjectID, in GoalInput) (*domain.Goal, error)
	ListGoals(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error)
	UpdateGoal(ctx context.Context, userID, id primitive.ObjectID, in GoalInput) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, id primitive.ObjectID) error
}

type trackingService struct {
	workouts  repository.WorkoutLogRepository
	weights   repository.WeightLogRepository
	goals     repository.GoalRepository
	plans     repository.PlanRepository
	exercises ExerciseService
}

func NewTrackingService(repos *repository.Repositories, exercises ExerciseService) TrackingService {
	return &trackingService{
		workouts:  repos.Workouts,
		weights:   repos.Weights,
		goals:     repos.Goals,
		plans:     repos.Plans,
		exercises: exercises,
	}
}

// === Workout logs ===

func (s *trackingService) CreateWorkoutLog(ctx context.Context, userID primitive.ObjectID, in WorkoutLogInput) (*domain.WorkoutLog, error) {
	if in.LogDate.IsZero() {
		return nil, invalidInput("logDate is required")
	}
	if in.PlanID != nil {
		// A log may only point at one of the caller's own plans.
		if _, err := s.plans.GetByIDForUser(ctx, *in.PlanID, userID); err != nil {
			return nil, mapRepoErr(err, ErrPlanNotFound)
		}
	}
	entry := &domain.WorkoutLog{
		UserID:  userID,
		PlanID:  in.PlanID,
		LogDate: domain.DateOnly(in.LogDate),
		Notes:   in.Notes,
	}
	id, err := s.workouts.Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("create workout log: %w", err)
	}
	entry.ID = id
	return entry, nil
}

func (s *trackingService) ListWorkoutLogs(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	return s.workouts.ListByUser(ctx, userID)
}

func (s *trackingService) GetWorkoutLog(ctx context.Context, userID, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	entry, err := s.workouts.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrWorkoutLogNotFound)
	}
	return entry, nil
}

func (s *trackingService) DeleteWorkoutLog(ctx context.Context, userID, id primitive.ObjectID) error {
	return mapRepoErr(s.workouts.Delete(ctx, id, userID), ErrWorkoutLogNotFound)
}

// === Weight logs ===

func (s *trackingService) CreateWeightLog(ctx context.Context, userID primitive.ObjectID, logDate time.Time, weight float64) (*domain.WeightLog, error) {
	if logDate.IsZero() {
		return nil, invalidInput("logDate is required")
	}
	if weight <= 0 {
		return nil, invalidInput("weight must be positive")
	}
	entry := &domain.WeightLog{
		UserID:  userID,
		LogDate: domain.DateOnly(logDate),
		Weight:  weight,
	}
	id, err := s.weights.Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("create weight log: %w", err)
	}
	entry.ID = id
	return entry, nil
}

func (s *trackingService) ListWeightLogs(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightLog, error) {
	return s.weights.ListByUser(ctx, userID)
}

func (s *trackingService) DeleteWeightLog(ctx context.Context, userID, id primitive.ObjectID) error {
	return mapRepoErr(s.weights.Delete(ctx, id, userID), ErrWeightLogNotFound)
}

// === Goals ===

func (s *trackingService) validateGoal(ctx context.Context, in GoalInput) error {
	if !in.Type.Valid() {
		return invalidInput("goal type must be %q or %q", domain.GoalTypeWeight, domain.GoalTypeExercise)
	}
	if in.TargetValue <= 0 {
		return invalidInput("targetValue must be positive")
	}
	switch in.Type {
	case domain.GoalTypeExercise:
		if in.ExerciseID == nil {
			return invalidInput("exerciseId is required for exercise goals")
		}
		ok, err := s.exercises.Exists(ctx, *in.ExerciseID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrExerciseNotFound
		}
	case domain.GoalTypeWeight:
		if in.ExerciseID != nil {
			return invalidInput("weight goals cannot reference an exercise")
		}
	}
	return nil
}

func (s *trackingService) CreateGoal(ctx context.Context, userID primitive.ObjectID, in GoalInput) (*domain.Goal, error) {
	if err := s.validateGoal(ctx, in); err != nil {
		return nil, err
	}
	goal := &domain.Goal{
		UserID:      userID,
		Type:        in.Type,
		TargetValue: in.TargetValue,
		Deadline:    in.Deadline,
		ExerciseID:  in.ExerciseID,
	}
	id, err := s.goals.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	goal.ID = id
	return goal, nil
}

func (s *trackingService) ListGoals(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	return s.goals.ListByUser(ctx, userID)
}

func (s *trackingService) UpdateGoal(ctx context.Context, userID, id primitive.ObjectID, in GoalInput) (*domain.Goal, error) {
	if err := s.validateGoal(ctx, in); err != nil {
		return nil, err
	}
	goal, err := s.goals.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrGoalNotFound)
	}
	goal.Type = in.Type
	goal.TargetValue = in.TargetValue
	goal.Deadline = in.Deadline
	goal.ExerciseID = in.ExerciseID
	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, mapRepoErr(err, ErrGoalNotFound)
	}
	return goal, nil
}

func (s *trackingService) DeleteGoal(ctx context.Context, userID, id primitive.ObjectID) error {
	return mapRepoErr(s.goals.Delete(ctx, id, userID), ErrGoalNotFound)
}
