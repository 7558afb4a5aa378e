package postgres

import (
	"context"
	"fmt"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanItemRepo struct {
	db *pgxpool.Pool
}

const planItemColumns = `id, plan_id, exercise_id, position, sets, reps, duration_seconds, distance_meters, notes, created_at, updated_at`

// WithPlanTx takes the plan's row lock for the whole transaction, so item
// writers of one plan queue behind each other while other plans proceed.
func (r *PlanItemRepo) WithPlanTx(ctx context.Context, planID, ownerID primitive.ObjectID, fn func(ctx context.Context, tx repository.PlanItemTx) error) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		plan, err := scanPlan(tx.QueryRow(ctx,
			`SELECT `+planColumns+` FROM workout_plans WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			planID.Hex(), ownerID.Hex(),
		))
		if err != nil {
			return err
		}

		if err := fn(ctx, &pgPlanTx{tx: tx, plan: *plan}); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE workout_plans SET items_version = items_version + 1 WHERE id = $1`, planID.Hex(),
		); err != nil {
			return fmt.Errorf("bump items version: %w", err)
		}
		return nil
	})
}

func (r *PlanItemRepo) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	return listItems(ctx, r.db, planID)
}

func (r *PlanItemRepo) GetByPosition(ctx context.Context, planID primitive.ObjectID, position int) (*domain.PlanItem, error) {
	return scanItem(r.db.QueryRow(ctx,
		`SELECT `+planItemColumns+` FROM plan_items WHERE plan_id = $1 AND position = $2`,
		planID.Hex(), position,
	))
}

func (r *PlanItemRepo) DetachExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE plan_items SET exercise_id = NULL, updated_at = $2 WHERE exercise_id = $1`,
		exerciseID.Hex(), time.Now().UTC(),
	)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PlanItemRepo) PlanIDsByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT plan_id FROM plan_items WHERE exercise_id = $1 ORDER BY plan_id`, exerciseID.Hex(),
	)
	if err != nil {
		return nil, err
	}
	ids, err := collect(rows, func(row scanner) (*primitive.ObjectID, error) {
		var s string
		if err := row.Scan(&s); err != nil {
			return nil, err
		}
		id, err := parseID(s)
		return &id, err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func listItems(ctx context.Context, q querier, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	rows, err := q.Query(ctx,
		`SELECT `+planItemColumns+` FROM plan_items WHERE plan_id = $1 ORDER BY position, created_at, id`,
		planID.Hex(),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanItem)
}

func scanItem(row scanner) (*domain.PlanItem, error) {
	var (
		it         domain.PlanItem
		id, planID string
		exerciseID *string
	)
	err := row.Scan(&id, &planID, &exerciseID, &it.Position, &it.Sets, &it.Reps,
		&it.DurationSeconds, &it.DistanceMeters, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if it.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if it.PlanID, err = parseID(planID); err != nil {
		return nil, err
	}
	if it.ExerciseID, err = parseNullableID(exerciseID); err != nil {
		return nil, err
	}
	return &it, nil
}

// pgPlanTx runs every statement inside the locked plan's transaction.
type pgPlanTx struct {
	tx   pgx.Tx
	plan domain.WorkoutPlan
}

func (t *pgPlanTx) Plan() *domain.WorkoutPlan {
	p := t.plan
	return &p
}

func (t *pgPlanTx) Count(ctx context.Context) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT count(*) FROM plan_items WHERE plan_id = $1`, t.plan.ID.Hex()).Scan(&n)
	return n, err
}

func (t *pgPlanTx) List(ctx context.Context) ([]domain.PlanItem, error) {
	return listItems(ctx, t.tx, t.plan.ID)
}

func (t *pgPlanTx) GetByID(ctx context.Context, itemID primitive.ObjectID) (*domain.PlanItem, error) {
	return scanItem(t.tx.QueryRow(ctx,
		`SELECT `+planItemColumns+` FROM plan_items WHERE id = $1 AND plan_id = $2`,
		itemID.Hex(), t.plan.ID.Hex(),
	))
}

func (t *pgPlanTx) GetByPosition(ctx context.Context, position int) (*domain.PlanItem, error) {
	return scanItem(t.tx.QueryRow(ctx,
		`SELECT `+planItemColumns+` FROM plan_items WHERE plan_id = $1 AND position = $2`,
		t.plan.ID.Hex(), position,
	))
}

func (t *pgPlanTx) ShiftRange(ctx context.Context, lo, hi, delta int, exclude primitive.ObjectID) (int, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE plan_items SET position = position + $4, updated_at = $5
			WHERE plan_id = $1 AND position BETWEEN $2 AND $3 AND id <> $6`,
		t.plan.ID.Hex(), lo, hi, delta, time.Now().UTC(), exclude.Hex(),
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (t *pgPlanTx) Insert(ctx context.Context, item *domain.PlanItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	item.PlanID = t.plan.ID
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := t.tx.Exec(ctx,
		`INSERT INTO plan_items (`+planItemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID.Hex(), item.PlanID.Hex(), nullableID(item.ExerciseID), item.Position, item.Sets, item.Reps,
		item.DurationSeconds, item.DistanceMeters, item.Notes, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (t *pgPlanTx) SetPosition(ctx context.Context, itemID primitive.ObjectID, position int) error {
	return execOwned(ctx, t.tx,
		`UPDATE plan_items SET position = $3, updated_at = $4 WHERE id = $1 AND plan_id = $2`,
		itemID.Hex(), t.plan.ID.Hex(), position, time.Now().UTC(),
	)
}

func (t *pgPlanTx) UpdatePayload(ctx context.Context, item *domain.PlanItem) error {
	item.UpdatedAt = time.Now().UTC()
	return execOwned(ctx, t.tx,
		`UPDATE plan_items
			SET sets = $3, reps = $4, duration_seconds = $5, distance_meters = $6, notes = $7, updated_at = $8
			WHERE id = $1 AND plan_id = $2`,
		item.ID.Hex(), t.plan.ID.Hex(), item.Sets, item.Reps, item.DurationSeconds, item.DistanceMeters, item.Notes, item.UpdatedAt,
	)
}

func (t *pgPlanTx) Delete(ctx context.Context, itemID primitive.ObjectID) error {
	return execOwned(ctx, t.tx, `DELETE FROM plan_items WHERE id = $1 AND plan_id = $2`, itemID.Hex(), t.plan.ID.Hex())
}
