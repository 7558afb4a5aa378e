package memory

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Create(_ context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, cur := range r.s.sessions {
		if cur.UserID == session.UserID && cur.PlanID == session.PlanID && !cur.Finished() {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	session.ID = primitive.NewObjectID()
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	r.s.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *sessionRepo) GetByIDForUser(_ context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *sessionRepo) GetActive(_ context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.PlanID == planID && !sess.Finished() {
			return &sess, nil
		}
	}
	return nil, repository.ErrNotFound
}

// AdvanceWithLog and FinishWithLog hold mu once for the session write and
// the log insert.
func (r *sessionRepo) AdvanceWithLog(ctx context.Context, id primitive.ObjectID, from int, entry *domain.WorkoutLog) error {
	return r.update(ctx, id, entry, func(sess *domain.WorkoutSession) error {
		if sess.CurrentIndex != from {
			return repository.ErrConflict
		}
		sess.CurrentIndex = from + 1
		return nil
	})
}

func (r *sessionRepo) FinishWithLog(ctx context.Context, id primitive.ObjectID, endedAt time.Time, entry *domain.WorkoutLog) error {
	return r.update(ctx, id, entry, func(sess *domain.WorkoutSession) error {
		sess.EndedAt = &endedAt
		return nil
	})
}

func (r *sessionRepo) update(ctx context.Context, id primitive.ObjectID, entry *domain.WorkoutLog, apply func(*domain.WorkoutSession) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if sess.Finished() {
		return repository.ErrConflict
	}
	if err := apply(&sess); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	r.s.workouts[entry.ID] = *entry
	r.s.sessions[id] = sess
	return nil
}
