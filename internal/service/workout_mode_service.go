package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// unknownExercise names items whose exercise was deleted with the detach policy.
const unknownExercise = "Unknown exercise"

// SessionItem is the plan item a session currently points at.
type SessionItem struct {
	ID              primitive.ObjectID `json:"id"`
	Position        int                `json:"position"`
	ExerciseName    string             `json:"exerciseName"`
	Sets            *int               `json:"sets,omitempty"`
	Reps            *int               `json:"reps,omitempty"`
	DurationSeconds *int               `json:"durationSeconds,omitempty"`
	DistanceMeters  *int               `json:"distanceMeters,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// SessionView is a session with its plan title and the next item to do.
// CurrentExercise is nil once the session walked past the last item.
type SessionView struct {
	domain.WorkoutSession
	Title           string       `json:"title"`
	CurrentExercise *SessionItem `json:"currentExercise"`
}

// FinishResult is returned when a session is ended.
type FinishResult struct {
	Status    string             `json:"status"`
	SessionID primitive.ObjectID `json:"sessionId"`
	PlanID    primitive.ObjectID `json:"planId"`
	Notes     string             `json:"notes,omitempty"`
}

// WorkoutModeService walks a user through a plan's items in position order.
type WorkoutModeService interface {
	Start(ctx context.Context, userID, planID primitive.ObjectID) (*SessionView, error)
	Complete(ctx context.Context, userID, sessionID primitive.ObjectID, notes string) (*SessionView, error)
	Finish(ctx context.Context, userID, sessionID primitive.ObjectID, notes string) (*FinishResult, error)
}

type workoutModeService struct {
	plans     repository.PlanRepository
	items     repository.PlanItemRepository
	sessions  repository.WorkoutSessionRepository
	exercises ExerciseService
	now       func() time.Time
}

func NewWorkoutModeService(repos *repository.Repositories, exercises ExerciseService) WorkoutModeService {
	return &workoutModeService{
		plans:     repos.Plans,
		items:     repos.PlanItems,
		sessions:  repos.Sessions,
		exercises: exercises,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *workoutModeService) Start(ctx context.Context, userID, planID primitive.ObjectID) (*SessionView, error) {
	plan, err := s.plans.GetByIDForUser(ctx, planID, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrPlanNotFound)
	}

	session := &domain.WorkoutSession{
		UserID:       userID,
		PlanID:       planID,
		StartedAt:    s.now(),
		CurrentIndex: 1,
	}
	id, err := s.sessions.Create(ctx, session)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSessionAlreadyActive
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.ID = id

	current, err := s.itemAt(ctx, planID, 1)
	if err != nil {
		return nil, err
	}
	return &SessionView{WorkoutSession: *session, Title: plan.Title, CurrentExercise: current}, nil
}

func (s *workoutModeService) Complete(ctx context.Context, userID, sessionID primitive.ObjectID, notes string) (*SessionView, error) {
	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetByPosition(ctx, session.PlanID, session.CurrentIndex)
	if err != nil {
		return nil, mapRepoErr(err, ErrPlanItemNotFound)
	}

	if notes == "" {
		notes = "done"
	}
	entry := s.logEntry(session, fmt.Sprintf("Completed %s: %s", s.exerciseName(ctx, item), notes))
	if err := s.sessions.AdvanceWithLog(ctx, session.ID, session.CurrentIndex, entry); err != nil {
		return nil, s.sessionWriteErr(ctx, userID, sessionID, err)
	}
	session.CurrentIndex++

	plan, err := s.plans.GetByIDForUser(ctx, session.PlanID, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrPlanNotFound)
	}
	next, err := s.itemAt(ctx, session.PlanID, session.CurrentIndex)
	if err != nil {
		return nil, err
	}
	return &SessionView{WorkoutSession: *session, Title: plan.Title, CurrentExercise: next}, nil
}

func (s *workoutModeService) Finish(ctx context.Context, userID, sessionID primitive.ObjectID, notes string) (*FinishResult, error) {
	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	logNotes := notes
	if logNotes == "" {
		logNotes = "No notes"
	}
	entry := s.logEntry(session, "Session finished: "+logNotes)
	if err := s.sessions.FinishWithLog(ctx, session.ID, s.now(), entry); err != nil {
		return nil, s.sessionWriteErr(ctx, userID, sessionID, err)
	}
	log.Debugf("session %s finished at index %d", session.ID.Hex(), session.CurrentIndex)

	return &FinishResult{
		Status:    "finished",
		SessionID: session.ID,
		PlanID:    session.PlanID,
		Notes:     notes,
	}, nil
}

func (s *workoutModeService) activeSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessions.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrSessionNotFound)
	}
	if session.Finished() {
		return nil, ErrSessionFinished
	}
	return session, nil
}

// sessionWriteErr explains a failed session write: a session that was
// finished meanwhile is ErrSessionFinished, a lost race is a conflict.
func (s *workoutModeService) sessionWriteErr(ctx context.Context, userID, sessionID primitive.ObjectID, err error) error {
	if !errors.Is(err, repository.ErrConflict) {
		return mapRepoErr(err, ErrSessionNotFound)
	}
	if _, err := s.activeSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return fmt.Errorf("%w: session %s", ErrConflict, sessionID.Hex())
}

func (s *workoutModeService) logEntry(session *domain.WorkoutSession, notes string) *domain.WorkoutLog {
	planID := session.PlanID
	return &domain.WorkoutLog{
		UserID:  session.UserID,
		PlanID:  &planID,
		LogDate: domain.DateOnly(s.now()),
		Notes:   notes,
	}
}

// itemAt returns the item at position, or nil when the plan has no such item.
func (s *workoutModeService) itemAt(ctx context.Context, planID primitive.ObjectID, position int) (*SessionItem, error) {
	item, err := s.items.GetByPosition(ctx, planID, position)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item at %d: %w", position, err)
	}
	return &SessionItem{
		ID:              item.ID,
		Position:        item.Position,
		ExerciseName:    s.exerciseName(ctx, item),
		Sets:            item.Sets,
		Reps:            item.Reps,
		DurationSeconds: item.DurationSeconds,
		DistanceMeters:  item.DistanceMeters,
		Notes:           item.Notes,
	}, nil
}

func (s *workoutModeService) exerciseName(ctx context.Context, item *domain.PlanItem) string {
	if item.ExerciseID == nil {
		return unknownExercise
	}
	e, err := s.exercises.GetExercise(ctx, *item.ExerciseID)
	if err != nil {
		if !errors.Is(err, ErrExerciseNotFound) {
			log.WithError(err).Warnf("exercise lookup for item %s", item.ID.Hex())
		}
		return unknownExercise
	}
	return e.Name
}
