package service

import (
	"errors"
	"fmt"

	"athlos/fitness-tracker/internal/ordering"
	"athlos/fitness-tracker/internal/repository"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPlanItemNotFound   = errors.New("plan item not found")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrSessionNotFound    = errors.New("workout session not found")
	ErrWorkoutLogNotFound = errors.New("workout log not found")
	ErrWeightLogNotFound  = errors.New("weight log not found")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrUserNotFound       = errors.New("user not found")

	// ErrInvalidPosition is returned for an insert or move target outside the plan.
	ErrInvalidPosition = ordering.ErrInvalidPosition
	// ErrConflict means a concurrent request modified the same plan or session.
	// Nothing was applied; the client may retry.
	ErrConflict = errors.New("concurrent modification, retry the request")

	ErrInvalidInput          = errors.New("invalid input")
	ErrSessionFinished       = errors.New("session already finished")
	ErrSessionAlreadyActive  = errors.New("session already active")
	ErrExerciseAlreadyExists = errors.New("exercise with this name already exists")
)

var notFoundErrors = []error{
	ErrPlanNotFound,
	ErrPlanItemNotFound,
	ErrExerciseNotFound,
	ErrSessionNotFound,
	ErrWorkoutLogNotFound,
	ErrWeightLogNotFound,
	ErrGoalNotFound,
	ErrUserNotFound,
}

// IsNotFound reports whether err is one of the not-found errors of this package.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// mapRepoErr translates repository errors, turning ErrNotFound into notFound.
func mapRepoErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
