package memory

import (
	"context"
	"sort"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/ordering"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planItemRepo struct {
	s *Store
}

// WithPlanTx runs fn against a private copy of the plan's items and swaps the
// copy in when fn succeeds. The plan lock is held for the whole call.
func (r *planItemRepo) WithPlanTx(ctx context.Context, planID, ownerID primitive.ObjectID, fn func(ctx context.Context, tx repository.PlanItemTx) error) error {
	lock := r.s.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	r.s.mu.RLock()
	plan, ok := r.s.plans[planID]
	if !ok || plan.UserID != ownerID {
		r.s.mu.RUnlock()
		return repository.ErrNotFound
	}
	snapshot := make(map[primitive.ObjectID]domain.PlanItem, len(r.s.items[planID]))
	for id, it := range r.s.items[planID] {
		snapshot[id] = it
	}
	r.s.mu.RUnlock()

	tx := &planTx{plan: plan, items: snapshot}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.ItemsVersion++
	r.s.plans[planID] = cur
	r.s.items[planID] = tx.items
	return nil
}

func (r *planItemRepo) ListByPlan(_ context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedItems(r.s.items[planID]), nil
}

func (r *planItemRepo) GetByPosition(_ context.Context, planID primitive.ObjectID, position int) (*domain.PlanItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, it := range r.s.items[planID] {
		if it.Position == position {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *planItemRepo) DetachExercise(_ context.Context, exerciseID primitive.ObjectID) (int64, error) {
	planIDs := r.plansReferencing(exerciseID)

	var n int64
	for _, planID := range planIDs {
		lock := r.s.planLock(planID)
		lock.Lock()
		r.s.mu.Lock()
		for id, it := range r.s.items[planID] {
			if it.ExerciseID != nil && *it.ExerciseID == exerciseID {
				it.ExerciseID = nil
				it.UpdatedAt = time.Now().UTC()
				r.s.items[planID][id] = it
				n++
			}
		}
		r.s.mu.Unlock()
		lock.Unlock()
	}
	return n, nil
}

func (r *planItemRepo) PlanIDsByExercise(_ context.Context, exerciseID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.plansReferencing(exerciseID), nil
}

func (r *planItemRepo) plansReferencing(exerciseID primitive.ObjectID) []primitive.ObjectID {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []primitive.ObjectID
	for planID, items := range r.s.items {
		for _, it := range items {
			if it.ExerciseID != nil && *it.ExerciseID == exerciseID {
				ids = append(ids, planID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids
}

func sortedItems(m map[primitive.ObjectID]domain.PlanItem) []domain.PlanItem {
	list := make([]domain.PlanItem, 0, len(m))
	for _, it := range m {
		list = append(list, it)
	}
	ordering.Sort(list)
	return list
}

// planTx is only touched by the goroutine holding the plan lock.
type planTx struct {
	plan  domain.WorkoutPlan
	items map[primitive.ObjectID]domain.PlanItem
}

func (t *planTx) Plan() *domain.WorkoutPlan {
	p := t.plan
	return &p
}

func (t *planTx) Count(_ context.Context) (int, error) {
	return len(t.items), nil
}

func (t *planTx) List(_ context.Context) ([]domain.PlanItem, error) {
	return sortedItems(t.items), nil
}

func (t *planTx) GetByID(_ context.Context, itemID primitive.ObjectID) (*domain.PlanItem, error) {
	it, ok := t.items[itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (t *planTx) GetByPosition(_ context.Context, position int) (*domain.PlanItem, error) {
	for _, it := range t.items {
		if it.Position == position {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *planTx) ShiftRange(_ context.Context, lo, hi, delta int, exclude primitive.ObjectID) (int, error) {
	now := time.Now().UTC()
	moved := 0
	for id, it := range t.items {
		if id == exclude || it.Position < lo || it.Position > hi {
			continue
		}
		it.Position += delta
		it.UpdatedAt = now
		t.items[id] = it
		moved++
	}
	return moved, nil
}

func (t *planTx) Insert(_ context.Context, item *domain.PlanItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if _, exists := t.items[item.ID]; exists {
		return repository.ErrDuplicate
	}
	item.PlanID = t.plan.ID
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	t.items[item.ID] = *item
	return nil
}

func (t *planTx) SetPosition(_ context.Context, itemID primitive.ObjectID, position int) error {
	it, ok := t.items[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	it.Position = position
	it.UpdatedAt = time.Now().UTC()
	t.items[itemID] = it
	return nil
}

func (t *planTx) UpdatePayload(_ context.Context, item *domain.PlanItem) error {
	it, ok := t.items[item.ID]
	if !ok {
		return repository.ErrNotFound
	}
	it.Sets = item.Sets
	it.Reps = item.Reps
	it.DurationSeconds = item.DurationSeconds
	it.DistanceMeters = item.DistanceMeters
	it.Notes = item.Notes
	it.UpdatedAt = time.Now().UTC()
	t.items[item.ID] = it
	item.UpdatedAt = it.UpdatedAt
	return nil
}

func (t *planTx) Delete(_ context.Context, itemID primitive.ObjectID) error {
	if _, ok := t.items[itemID]; !ok {
		return repository.ErrNotFound
	}
	delete(t.items, itemID)
	return nil
}
