package memory

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutLogRepo struct {
	s *Store
}

func (r *workoutLogRepo) Create(_ context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()
	r.s.workouts[log.ID] = *log
	return log.ID, nil
}

func (r *workoutLogRepo) GetByIDForUser(_ context.Context, id, userID primitive.ObjectID) (*domain.WorkoutLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.workouts[id]
	if !ok || w.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *workoutLogRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]domain.WorkoutLog, 0)
	for _, w := range r.s.workouts {
		if w.UserID == userID {
			list = append(list, w)
		}
	}
	byNewest(list, func(w domain.WorkoutLog) (int64, primitive.ObjectID) { return w.LogDate.UnixNano(), w.ID })
	return list, nil
}

func (r *workoutLogRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.workouts[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.workouts, id)
	return nil
}

type weightLogRepo struct {
	s *Store
}

func (r *weightLogRepo) Create(_ context.Context, log *domain.WeightLog) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()
	r.s.weights[log.ID] = *log
	return log.ID, nil
}

func (r *weightLogRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.WeightLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]domain.WeightLog, 0)
	for _, w := range r.s.weights {
		if w.UserID == userID {
			list = append(list, w)
		}
	}
	byNewest(list, func(w domain.WeightLog) (int64, primitive.ObjectID) { return w.LogDate.UnixNano(), w.ID })
	return list, nil
}

func (r *weightLogRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.weights[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.weights, id)
	return nil
}

type goalRepo struct {
	s *Store
}

func (r *goalRepo) Create(_ context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	r.s.goals[goal.ID] = *goal
	return goal.ID, nil
}

func (r *goalRepo) GetByIDForUser(_ context.Context, id, userID primitive.ObjectID) (*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[id]
	if !ok || g.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *goalRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]domain.Goal, 0)
	for _, g := range r.s.goals {
		if g.UserID == userID {
			list = append(list, g)
		}
	}
	byNewest(list, func(g domain.Goal) (int64, primitive.ObjectID) { return g.CreatedAt.UnixNano(), g.ID })
	return list, nil
}

func (r *goalRepo) Update(_ context.Context, goal *domain.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.goals[goal.ID]
	if !ok || cur.UserID != goal.UserID {
		return repository.ErrNotFound
	}
	cur.Type = goal.Type
	cur.TargetValue = goal.TargetValue
	cur.Deadline = goal.Deadline
	cur.ExerciseID = goal.ExerciseID
	cur.UpdatedAt = time.Now().UTC()
	r.s.goals[goal.ID] = cur
	*goal = cur
	return nil
}

func (r *goalRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.goals[id]
	if !ok || g.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.goals, id)
	return nil
}

func (r *goalRepo) DetachExercise(_ context.Context, exerciseID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, g := range r.s.goals {
		if g.ExerciseID != nil && *g.ExerciseID == exerciseID {
			g.ExerciseID = nil
			g.UpdatedAt = time.Now().UTC()
			r.s.goals[id] = g
			n++
		}
	}
	return n, nil
}
