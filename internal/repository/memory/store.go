// Package memory is an in-process backend for local development and tests.
// Data lives in maps guarded by one RWMutex; item writes additionally hold a
// per-plan mutex so that writers of one plan serialize while other plans
// proceed.
package memory

import (
	"sort"
	"sync"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection. Lock order is plan lock first, then mu.
type Store struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]domain.User
	exercises map[primitive.ObjectID]domain.Exercise
	plans     map[primitive.ObjectID]domain.WorkoutPlan
	items     map[primitive.ObjectID]map[primitive.ObjectID]domain.PlanItem // by plan
	workouts  map[primitive.ObjectID]domain.WorkoutLog
	weights   map[primitive.ObjectID]domain.WeightLog
	goals     map[primitive.ObjectID]domain.Goal
	sessions  map[primitive.ObjectID]domain.WorkoutSession

	locksMu   sync.Mutex
	planLocks map[primitive.ObjectID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users:     make(map[primitive.ObjectID]domain.User),
		exercises: make(map[primitive.ObjectID]domain.Exercise),
		plans:     make(map[primitive.ObjectID]domain.WorkoutPlan),
		items:     make(map[primitive.ObjectID]map[primitive.ObjectID]domain.PlanItem),
		workouts:  make(map[primitive.ObjectID]domain.WorkoutLog),
		weights:   make(map[primitive.ObjectID]domain.WeightLog),
		goals:     make(map[primitive.ObjectID]domain.Goal),
		sessions:  make(map[primitive.ObjectID]domain.WorkoutSession),
		planLocks: make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// NewRepositories returns every repository backed by s.
func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		Users:     &userRepo{s: s},
		Exercises: &exerciseRepo{s: s},
		Plans:     &planRepo{s: s},
		PlanItems: &planItemRepo{s: s},
		Workouts:  &workoutLogRepo{s: s},
		Weights:   &weightLogRepo{s: s},
		Goals:     &goalRepo{s: s},
		Sessions:  &sessionRepo{s: s},
	}
}

func (s *Store) planLock(planID primitive.ObjectID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.planLocks[planID]
	if !ok {
		l = &sync.Mutex{}
		s.planLocks[planID] = l
	}
	return l
}

func (s *Store) dropPlanLock(planID primitive.ObjectID) {
	s.locksMu.Lock()
	delete(s.planLocks, planID)
	s.locksMu.Unlock()
}

// byNewest sorts so that later keys come first, ties broken by id.
func byNewest[T any](list []T, key func(T) (int64, primitive.ObjectID)) {
	sort.Slice(list, func(i, j int) bool {
		ki, idi := key(list[i])
		kj, idj := key(list[j])
		if ki != kj {
			return ki > kj
		}
		return idi.Hex() > idj.Hex()
	})
}
