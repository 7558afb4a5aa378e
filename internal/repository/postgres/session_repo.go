package postgres

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"
	"athlos/fitness-tracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionRepo struct {
	db *pgxpool.Pool
}

const sessionColumns = `id, user_id, plan_id, started_at, ended_at, current_index`

func (r *SessionRepo) Create(ctx context.Context, s *domain.WorkoutSession) (primitive.ObjectID, error) {
	s.ID = primitive.NewObjectID()
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO workout_sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID.Hex(), s.UserID.Hex(), s.PlanID.Hex(), s.StartedAt, s.EndedAt, s.CurrentIndex,
	)
	if err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return s.ID, nil
}

func (r *SessionRepo) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1 AND user_id = $2`, id.Hex(), userID.Hex(),
	))
}

func (r *SessionRepo) GetActive(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE user_id = $1 AND plan_id = $2 AND ended_at IS NULL`,
		userID.Hex(), planID.Hex(),
	))
}

func (r *SessionRepo) AdvanceWithLog(ctx context.Context, id primitive.ObjectID, from int, entry *domain.WorkoutLog) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE workout_sessions SET current_index = current_index + 1
				WHERE id = $1 AND current_index = $2 AND ended_at IS NULL`,
			id.Hex(), from,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, id)
		}
		return insertWorkoutLog(ctx, tx, entry)
	})
}

func (r *SessionRepo) FinishWithLog(ctx context.Context, id primitive.ObjectID, endedAt time.Time, entry *domain.WorkoutLog) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE workout_sessions SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL`,
			id.Hex(), endedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, id)
		}
		return insertWorkoutLog(ctx, tx, entry)
	})
}

func missOrConflict(ctx context.Context, q querier, id primitive.ObjectID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workout_sessions WHERE id = $1)`, id.Hex()).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func scanSession(row scanner) (*domain.WorkoutSession, error) {
	var (
		s                  domain.WorkoutSession
		id, userID, planID string
	)
	err := row.Scan(&id, &userID, &planID, &s.StartedAt, &s.EndedAt, &s.CurrentIndex)
	if err != nil {
		return nil, mapError(err)
	}
	if s.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if s.UserID, err = parseID(userID); err != nil {
		return nil, err
	}
	if s.PlanID, err = parseID(planID); err != nil {
		return nil, err
	}
	return &s, nil
}
