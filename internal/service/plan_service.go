package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/ordering"
	"athlos/fitness-tracker/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	opInsert     = "insert"
	opReposition = "reposition"
	opRemove     = "remove"
	opRenumber   = "renumber"
)

// PlanInput carries the user-editable fields of a plan.
type PlanInput struct {
	Title                  string
	GoalText               string
	FrequencyPerWeek       int
	SessionDurationMinutes int
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidInput("title is required")
	}
	if in.FrequencyPerWeek < 0 || in.SessionDurationMinutes < 0 {
		return invalidInput("frequency and session duration cannot be negative")
	}
	return nil
}

// PlanWithItems is a plan together with its items in position order.
type PlanWithItems struct {
	domain.WorkoutPlan
	Items []domain.PlanItem `json:"items"`
}

// PlanReport is the density check result of one plan.
type PlanReport struct {
	PlanID primitive.ObjectID
	UserID primitive.ObjectID
	Items  int
	Err    error // nil when the positions are dense
}

type PlanService interface {
	CreatePlan(ctx context.Context, userID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error)
	ListPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*PlanWithItems, error)
	UpdatePlan(ctx context.Context, userID, planID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error

	// AddItem inserts a new item at position, or appends it when position is nil.
	AddItem(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, fields domain.PlanItemFields, position *int) (*domain.PlanItem, error)
	// UpdateItem replaces the item payload and, when position is set, moves it.
	UpdateItem(ctx context.Context, userID, planID, itemID primitive.ObjectID, fields domain.PlanItemFields, position *int) (*domain.PlanItem, error)
	RemoveItem(ctx context.Context, userID, planID, itemID primitive.ObjectID) error
	ListItems(ctx context.Context, userID, planID primitive.ObjectID) ([]domain.PlanItem, error)

	// VerifyPlans checks the positions of every plan. Admin tooling only.
	VerifyPlans(ctx context.Context) ([]PlanReport, error)
	// RepairPlan renumbers a plan's items to 1..N. Admin tooling only.
	RepairPlan(ctx context.Context, planID primitive.ObjectID) (ordering.Result, error)
}

// planService implements the PlanService interface.
type planService struct {
	plans     repository.PlanRepository
	items     repository.PlanItemRepository
	exercises ExerciseService
	metrics   *metrics.Manager
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	plans repository.PlanRepository,
	items repository.PlanItemRepository,
	exercises ExerciseService,
	m *metrics.Manager,
) PlanService {
	return &planService{
		plans:     plans,
		items:     items,
		exercises: exercises,
		metrics:   m,
	}
}

// === Plans ===

func (s *planService) CreatePlan(ctx context.Context, userID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan := &domain.WorkoutPlan{
		UserID:                 userID,
		Title:                  strings.TrimSpace(in.Title),
		GoalText:               in.GoalText,
		FrequencyPerWeek:       in.FrequencyPerWeek,
		SessionDurationMinutes: in.SessionDurationMinutes,
	}
	id, err := s.plans.Create(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	plan.ID = id
	return plan, nil
}

func (s *planService) ListPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	plans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *planService) GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*PlanWithItems, error) {
	plan, err := s.plans.GetByIDForUser(ctx, planID, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrPlanNotFound)
	}
	items, err := s.items.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return &PlanWithItems{WorkoutPlan: *plan, Items: items}, nil
}

func (s *planService) UpdatePlan(ctx context.Context, userID, planID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByIDForUser(ctx, planID, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrPlanNotFound)
	}
	plan.Title = strings.TrimSpace(in.Title)
	plan.GoalText = in.GoalText
	plan.FrequencyPerWeek = in.FrequencyPerWeek
	plan.SessionDurationMinutes = in.SessionDurationMinutes
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, mapRepoErr(err, ErrPlanNotFound)
	}
	return plan, nil
}

func (s *planService) DeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	if err := s.plans.Delete(ctx, planID, userID); err != nil {
		return mapRepoErr(err, ErrPlanNotFound)
	}
	log.Debugf("plan %s deleted by %s", planID.Hex(), userID.Hex())
	return nil
}

// === Items ===

func (s *planService) AddItem(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, fields domain.PlanItemFields, position *int) (*domain.PlanItem, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	exists, err := s.exercises.Exists(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrExerciseNotFound
	}

	item := &domain.PlanItem{ExerciseID: &exerciseID}
	item.ApplyFields(fields)

	var res ordering.Result
	err = s.items.WithPlanTx(ctx, planID, userID, func(ctx context.Context, tx repository.PlanItemTx) error {
		var err error
		res, err = ordering.Insert(ctx, tx, item, position)
		return err
	})
	if err = s.finish(opInsert, res, err); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *planService) UpdateItem(ctx context.Context, userID, planID, itemID primitive.ObjectID, fields domain.PlanItemFields, position *int) (*domain.PlanItem, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	var (
		item *domain.PlanItem
		res  ordering.Result
	)
	err := s.items.WithPlanTx(ctx, planID, userID, func(ctx context.Context, tx repository.PlanItemTx) error {
		var err error
		item, err = tx.GetByID(ctx, itemID)
		if err != nil {
			return itemLookupErr(err)
		}
		item.ApplyFields(fields)
		if err := tx.UpdatePayload(ctx, item); err != nil {
			return fmt.Errorf("update item payload: %w", err)
		}
		if position == nil {
			res.Position = item.Position
			return nil
		}
		res, err = ordering.Reposition(ctx, tx, item, *position)
		return err
	})
	if err = s.finish(opReposition, res, err); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *planService) RemoveItem(ctx context.Context, userID, planID, itemID primitive.ObjectID) error {
	var res ordering.Result
	err := s.items.WithPlanTx(ctx, planID, userID, func(ctx context.Context, tx repository.PlanItemTx) error {
		item, err := tx.GetByID(ctx, itemID)
		if err != nil {
			return itemLookupErr(err)
		}
		res, err = ordering.Remove(ctx, tx, item)
		return err
	})
	return s.finish(opRemove, res, err)
}

func (s *planService) ListItems(ctx context.Context, userID, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	if _, err := s.plans.GetByIDForUser(ctx, planID, userID); err != nil {
		return nil, mapRepoErr(err, ErrPlanNotFound)
	}
	items, err := s.items.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// === Admin ===

func (s *planService) VerifyPlans(ctx context.Context) ([]PlanReport, error) {
	plans, err := s.plans.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	reports := make([]PlanReport, 0, len(plans))
	for _, p := range plans {
		items, err := s.items.ListByPlan(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list items of %s: %w", p.ID.Hex(), err)
		}
		reports = append(reports, PlanReport{
			PlanID: p.ID,
			UserID: p.UserID,
			Items:  len(items),
			Err:    ordering.Verify(items),
		})
	}
	return reports, nil
}

func (s *planService) RepairPlan(ctx context.Context, planID primitive.ObjectID) (ordering.Result, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return ordering.Result{}, mapRepoErr(err, ErrPlanNotFound)
	}
	var res ordering.Result
	err = s.items.WithPlanTx(ctx, planID, plan.UserID, func(ctx context.Context, tx repository.PlanItemTx) error {
		var err error
		res, err = ordering.Renumber(ctx, tx)
		return err
	})
	if err = s.finish(opRenumber, res, err); err != nil {
		return ordering.Result{}, err
	}
	log.Infof("plan %s renumbered, %d items moved", planID.Hex(), res.Shifted)
	return res, nil
}

// finish maps the outcome of an item transaction and records it.
func (s *planService) finish(op string, res ordering.Result, err error) error {
	err = mapRepoErr(err, ErrPlanNotFound)
	if s.metrics != nil {
		result := metrics.ResultOK
		switch {
		case errors.Is(err, ErrConflict):
			result = metrics.ResultConflict
		case err != nil:
			result = metrics.ResultError
		}
		s.metrics.ObservePlanItemOp(op, result, res.Shifted)
	}
	if errors.Is(err, ErrConflict) {
		log.Warnf("plan item %s: %v", op, err)
	}
	return err
}

func itemLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanItemNotFound
	}
	return fmt.Errorf("get item: %w", err)
}

func validateFields(f domain.PlanItemFields) error {
	for name, v := range map[string]*int{
		"sets":            f.Sets,
		"reps":            f.Reps,
		"durationSeconds": f.DurationSeconds,
		"distanceMeters":  f.DistanceMeters,
	} {
		if v != nil && *v < 0 {
			return invalidInput("%s cannot be negative", name)
		}
	}
	return nil
}
