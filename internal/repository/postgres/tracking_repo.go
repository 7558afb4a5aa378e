package postgres

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutLogRepo struct {
	db *pgxpool.Pool
}

const workoutLogColumns = `id, user_id, plan_id, log_date, notes, created_at`

func (r *WorkoutLogRepo) Create(ctx context.Context, l *domain.WorkoutLog) (primitive.ObjectID, error) {
	if err := insertWorkoutLog(ctx, r.db, l); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return l.ID, nil
}

// insertWorkoutLog also runs inside session transactions.
func insertWorkoutLog(ctx context.Context, q querier, l *domain.WorkoutLog) error {
	l.ID = primitive.NewObjectID()
	l.CreatedAt = time.Now().UTC()
	_, err := q.Exec(ctx,
		`INSERT INTO workout_logs (`+workoutLogColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID.Hex(), l.UserID.Hex(), nullableID(l.PlanID), l.LogDate, l.Notes, l.CreatedAt,
	)
	return err
}

func (r *WorkoutLogRepo) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutLog, error) {
	return scanWorkoutLog(r.db.QueryRow(ctx,
		`SELECT `+workoutLogColumns+` FROM workout_logs WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex(),
	))
}

func (r *WorkoutLogRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+workoutLogColumns+` FROM workout_logs WHERE user_id = $1 ORDER BY log_date DESC, id DESC`, userID.Hex(),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWorkoutLog)
}

func (r *WorkoutLogRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return execOwned(ctx, r.db, `DELETE FROM workout_logs WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex())
}

func scanWorkoutLog(row scanner) (*domain.WorkoutLog, error) {
	var (
		l          domain.WorkoutLog
		id, userID string
		planID     *string
	)
	err := row.Scan(&id, &userID, &planID, &l.LogDate, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if l.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if l.UserID, err = parseID(userID); err != nil {
		return nil, err
	}
	if l.PlanID, err = parseNullableID(planID); err != nil {
		return nil, err
	}
	return &l, nil
}

type WeightLogRepo struct {
	db *pgxpool.Pool
}

const weightLogColumns = `id, user_id, log_date, weight, created_at`

func (r *WeightLogRepo) Create(ctx context.Context, l *domain.WeightLog) (primitive.ObjectID, error) {
	l.ID = primitive.NewObjectID()
	l.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO weight_logs (`+weightLogColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		l.ID.Hex(), l.UserID.Hex(), l.LogDate, l.Weight, l.CreatedAt,
	)
	if err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return l.ID, nil
}

func (r *WeightLogRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+weightLogColumns+` FROM weight_logs WHERE user_id = $1 ORDER BY log_date DESC, id DESC`, userID.Hex(),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (*domain.WeightLog, error) {
		var (
			l          domain.WeightLog
			id, userID string
		)
		err := row.Scan(&id, &userID, &l.LogDate, &l.Weight, &l.CreatedAt)
		if err != nil {
			return nil, mapError(err)
		}
		if l.ID, err = parseID(id); err != nil {
			return nil, err
		}
		if l.UserID, err = parseID(userID); err != nil {
			return nil, err
		}
		return &l, nil
	})
}

func (r *WeightLogRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return execOwned(ctx, r.db, `DELETE FROM weight_logs WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex())
}

type GoalRepo struct {
	db *pgxpool.Pool
}

const goalColumns = `id, user_id, type, target_value, deadline, exercise_id, created_at, updated_at`

func (r *GoalRepo) Create(ctx context.Context, g *domain.Goal) (primitive.ObjectID, error) {
	g.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := r.db.Exec(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID.Hex(), g.UserID.Hex(), string(g.Type), g.TargetValue, g.Deadline, nullableID(g.ExerciseID), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return g.ID, nil
}

func (r *GoalRepo) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Goal, error) {
	return scanGoal(r.db.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex(),
	))
}

func (r *GoalRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID.Hex(),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanGoal)
}

func (r *GoalRepo) Update(ctx context.Context, g *domain.Goal) error {
	updated, err := scanGoal(r.db.QueryRow(ctx,
		`UPDATE goals SET type = $3, target_value = $4, deadline = $5, exercise_id = $6, updated_at = $7
			WHERE id = $1 AND user_id = $2
			RETURNING `+goalColumns,
		g.ID.Hex(), g.UserID.Hex(), string(g.Type), g.TargetValue, g.Deadline, nullableID(g.ExerciseID), time.Now().UTC(),
	))
	if err != nil {
		return err
	}
	*g = *updated
	return nil
}

func (r *GoalRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return execOwned(ctx, r.db, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex())
}

func (r *GoalRepo) DetachExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE goals SET exercise_id = NULL, updated_at = $2 WHERE exercise_id = $1`,
		exerciseID.Hex(), time.Now().UTC(),
	)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func scanGoal(row scanner) (*domain.Goal, error) {
	var (
		g          domain.Goal
		id, userID string
		goalType   string
		exerciseID *string
	)
	err := row.Scan(&id, &userID, &goalType, &g.TargetValue, &g.Deadline, &exerciseID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	g.Type = domain.GoalType(goalType)
	if g.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if g.UserID, err = parseID(userID); err != nil {
		return nil, err
	}
	if g.ExerciseID, err = parseNullableID(exerciseID); err != nil {
		return nil, err
	}
	return &g, nil
}
