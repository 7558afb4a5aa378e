package postgres

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanRepo struct {
	db *pgxpool.Pool
}

const planColumns = `id, user_id, title, goal_text, frequency_per_week, session_duration_minutes, items_version, created_at, updated_at`

func (r *PlanRepo) Create(ctx context.Context, p *domain.WorkoutPlan) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO workout_plans (`+planColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID.Hex(), p.UserID.Hex(), p.Title, p.GoalText, p.FrequencyPerWeek, p.SessionDurationMinutes, p.ItemsVersion, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return p.ID, nil
}

func (r *PlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM workout_plans WHERE id = $1`, id.Hex()))
}

func (r *PlanRepo) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return scanPlan(r.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE id = $1 AND user_id = $2`,
		id.Hex(), userID.Hex(),
	))
}

func (r *PlanRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID.Hex(),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPlan)
}

func (r *PlanRepo) ListAll(ctx context.Context) ([]domain.WorkoutPlan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+planColumns+` FROM workout_plans ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPlan)
}

func (r *PlanRepo) Update(ctx context.Context, p *domain.WorkoutPlan) error {
	updated, err := scanPlan(r.db.QueryRow(ctx,
		`UPDATE workout_plans
			SET title = $3, goal_text = $4, frequency_per_week = $5, session_duration_minutes = $6, updated_at = $7
			WHERE id = $1 AND user_id = $2
			RETURNING `+planColumns,
		p.ID.Hex(), p.UserID.Hex(), p.Title, p.GoalText, p.FrequencyPerWeek, p.SessionDurationMinutes, time.Now().UTC(),
	))
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}

// Delete relies on the foreign keys: items and sessions cascade, workout
// logs have their plan_id set to NULL.
func (r *PlanRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return execOwned(ctx, r.db, `DELETE FROM workout_plans WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex())
}

func scanPlan(row scanner) (*domain.WorkoutPlan, error) {
	var (
		p          domain.WorkoutPlan
		id, userID string
	)
	err := row.Scan(&id, &userID, &p.Title, &p.GoalText, &p.FrequencyPerWeek, &p.SessionDurationMinutes, &p.ItemsVersion, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if p.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if p.UserID, err = parseID(userID); err != nil {
		return nil, err
	}
	return &p, nil
}
