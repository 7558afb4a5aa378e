package postgres

import (
	"context"
	"time"

	"athlos/fitness-tracker/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExerciseRepo struct {
	db *pgxpool.Pool
}

const exerciseColumns = `id, name, description, instructions, target_muscles, equipment, difficulty, created_at, updated_at`

func (r *ExerciseRepo) Create(ctx context.Context, e *domain.Exercise) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID.Hex(), e.Name, e.Description, e.Instructions, e.TargetMuscles, e.Equipment, e.Difficulty, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return e.ID, nil
}

func (r *ExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	return scanExercise(r.db.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id.Hex()))
}

func (r *ExerciseRepo) GetByName(ctx context.Context, name string) (*domain.Exercise, error) {
	return scanExercise(r.db.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE name = $1`, name))
}

func (r *ExerciseRepo) List(ctx context.Context) ([]domain.Exercise, error) {
	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExercise)
}

func (r *ExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return execOwned(ctx, r.db, `DELETE FROM exercises WHERE id = $1`, id.Hex())
}

func scanExercise(row scanner) (*domain.Exercise, error) {
	var (
		e  domain.Exercise
		id string
	)
	err := row.Scan(&id, &e.Name, &e.Description, &e.Instructions, &e.TargetMuscles, &e.Equipment, &e.Difficulty, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if e.ID, err = parseID(id); err != nil {
		return nil, err
	}
	return &e, nil
}
