package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"athlos/fitness-tracker/internal/cache"
	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/ordering"
	"athlos/fitness-tracker/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeleteReport describes what deleting an exercise did to its references.
type DeleteReport struct {
	ItemsDetached int64
	ItemsRemoved  int
	GoalsDetached int64
}

type ExerciseService interface {
	ListExercises(ctx context.Context) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	// CreateExercise adds an entry to the library. Used by seeding and the admin CLI.
	CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	// DeleteExercise removes an exercise and resolves the references to it
	// according to the configured policy.
	DeleteExercise(ctx context.Context, id primitive.ObjectID) (DeleteReport, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	repos        *repository.Repositories
	cache        cache.ExerciseCache
	deletePolicy string
	metrics      *metrics.Manager
}

// NewExerciseService creates a new instance of exerciseService. A nil cache
// disables caching.
func NewExerciseService(repos *repository.Repositories, c cache.ExerciseCache, deletePolicy string, m *metrics.Manager) ExerciseService {
	if c == nil {
		c = cache.Nop{}
	}
	if deletePolicy == "" {
		deletePolicy = config.DeletePolicyDetach
	}
	return &exerciseService{
		repos:        repos,
		cache:        c,
		deletePolicy: deletePolicy,
		metrics:      m,
	}
}

func (s *exerciseService) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	if list, ok := s.cache.GetList(ctx); ok {
		return list, nil
	}
	list, err := s.repos.Exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	s.cache.SetList(ctx, list)
	return list, nil
}

func (s *exerciseService) GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	if e, ok := s.cache.Get(ctx, id); ok {
		return e, nil
	}
	e, err := s.repos.Exercises.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrExerciseNotFound)
	}
	s.cache.Set(ctx, e)
	return e, nil
}

func (s *exerciseService) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if id.IsZero() {
		return false, nil
	}
	_, err := s.GetExercise(ctx, id)
	if errors.Is(err, ErrExerciseNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *exerciseService) CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	exercise.Name = strings.TrimSpace(exercise.Name)
	if exercise.Name == "" {
		return nil, invalidInput("exercise name is required")
	}
	id, err := s.repos.Exercises.Create(ctx, exercise)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrExerciseAlreadyExists
		}
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	exercise.ID = id
	s.cache.Invalidate(ctx, id)
	return exercise, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, id primitive.ObjectID) (DeleteReport, error) {
	var report DeleteReport
	if _, err := s.repos.Exercises.GetByID(ctx, id); err != nil {
		return report, mapRepoErr(err, ErrExerciseNotFound)
	}

	if err := s.clearReferences(ctx, id, &report); err != nil {
		return report, err
	}
	if err := s.repos.Exercises.Delete(ctx, id); err != nil {
		return report, mapRepoErr(err, ErrExerciseNotFound)
	}
	s.cache.Invalidate(ctx, id)

	// An AddItem that resolved the exercise before the delete may have
	// written its item after the first sweep.
	if err := s.clearReferences(ctx, id, &report); err != nil {
		return report, err
	}

	log.WithFields(log.Fields{
		"exercise":       id.Hex(),
		"policy":         s.deletePolicy,
		"items_detached": report.ItemsDetached,
		"items_removed":  report.ItemsRemoved,
		"goals_detached": report.GoalsDetached,
	}).Info("exercise deleted")
	return report, nil
}

// clearReferences applies the delete policy to the items using the exercise
// and detaches it from goals, adding the counts to report.
func (s *exerciseService) clearReferences(ctx context.Context, id primitive.ObjectID, report *DeleteReport) error {
	switch s.deletePolicy {
	case config.DeletePolicyCascade:
		removed, err := s.removeReferencingItems(ctx, id)
		report.ItemsRemoved += removed
		if err != nil {
			return err
		}
	default:
		detached, err := s.repos.PlanItems.DetachExercise(ctx, id)
		if err != nil {
			return fmt.Errorf("detach plan items: %w", err)
		}
		report.ItemsDetached += detached
	}

	// Goals are never deleted along with an exercise.
	detached, err := s.repos.Goals.DetachExercise(ctx, id)
	if err != nil {
		return fmt.Errorf("detach goals: %w", err)
	}
	report.GoalsDetached += detached
	return nil
}

// removeReferencingItems removes every plan item using the exercise, one
// plan transaction per affected plan.
func (s *exerciseService) removeReferencingItems(ctx context.Context, exerciseID primitive.ObjectID) (int, error) {
	planIDs, err := s.repos.PlanItems.PlanIDsByExercise(ctx, exerciseID)
	if err != nil {
		return 0, fmt.Errorf("find referencing plans: %w", err)
	}

	removed := 0
	for _, planID := range planIDs {
		plan, err := s.repos.Plans.GetByID(ctx, planID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("get plan %s: %w", planID.Hex(), err)
		}

		var shifts []int
		err = s.repos.PlanItems.WithPlanTx(ctx, planID, plan.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
			items, err := tx.List(ctx)
			if err != nil {
				return err
			}
			// Highest position first, so the positions of the remaining matches stay valid.
			sort.Slice(items, func(i, j int) bool { return items[i].Position > items[j].Position })
			for i := range items {
				if items[i].ExerciseID == nil || *items[i].ExerciseID != exerciseID {
					continue
				}
				res, err := ordering.Remove(ctx, tx, &items[i])
				if err != nil {
					return err
				}
				shifts = append(shifts, res.Shifted)
			}
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("remove items of plan %s: %w", planID.Hex(), mapRepoErr(err, ErrPlanNotFound))
		}
		for _, shifted := range shifts {
			if s.metrics != nil {
				s.metrics.ObservePlanItemOp(opRemove, metrics.ResultOK, shifted)
			}
		}
		removed += len(shifts)
	}
	return removed, nil
}
