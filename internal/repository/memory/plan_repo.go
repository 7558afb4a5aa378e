package memory

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planRepo struct {
	s *Store
}

func (r *planRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.s.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *planRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *planRepo) GetByIDForUser(_ context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *planRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]domain.WorkoutPlan, 0)
	for _, p := range r.s.plans {
		if p.UserID == userID {
			list = append(list, p)
		}
	}
	byNewest(list, func(p domain.WorkoutPlan) (int64, primitive.ObjectID) { return p.CreatedAt.UnixNano(), p.ID })
	return list, nil
}

func (r *planRepo) ListAll(_ context.Context) ([]domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]domain.WorkoutPlan, 0, len(r.s.plans))
	for _, p := range r.s.plans {
		list = append(list, p)
	}
	byNewest(list, func(p domain.WorkoutPlan) (int64, primitive.ObjectID) { return p.CreatedAt.UnixNano(), p.ID })
	return list, nil
}

func (r *planRepo) Update(_ context.Context, plan *domain.WorkoutPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.plans[plan.ID]
	if !ok || cur.UserID != plan.UserID {
		return repository.ErrNotFound
	}
	cur.Title = plan.Title
	cur.GoalText = plan.GoalText
	cur.FrequencyPerWeek = plan.FrequencyPerWeek
	cur.SessionDurationMinutes = plan.SessionDurationMinutes
	cur.UpdatedAt = time.Now().UTC()
	r.s.plans[plan.ID] = cur
	*plan = cur
	return nil
}

func (r *planRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	lock := r.s.planLock(id)
	lock.Lock()
	defer lock.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.plans[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.plans, id)
	delete(r.s.items, id)
	for sid, sess := range r.s.sessions {
		if sess.PlanID == id {
			delete(r.s.sessions, sid)
		}
	}
	for wid, w := range r.s.workouts {
		if w.PlanID != nil && *w.PlanID == id {
			w.PlanID = nil
			r.s.workouts[wid] = w
		}
	}
	r.s.dropPlanLock(id)
	return nil
}
