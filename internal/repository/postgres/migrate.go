package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exercises (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL UNIQUE,
	description    TEXT NOT NULL DEFAULT '',
	instructions   TEXT NOT NULL DEFAULT '',
	target_muscles TEXT NOT NULL DEFAULT '',
	equipment      TEXT NOT NULL DEFAULT '',
	difficulty     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workout_plans (
	id                       TEXT PRIMARY KEY,
	user_id                  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title                    TEXT NOT NULL,
	goal_text                TEXT NOT NULL DEFAULT '',
	frequency_per_week       INT NOT NULL DEFAULT 0,
	session_duration_minutes INT NOT NULL DEFAULT 0,
	items_version            BIGINT NOT NULL DEFAULT 0,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_workout_plans_user_id ON workout_plans(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS plan_items (
	id               TEXT PRIMARY KEY,
	plan_id          TEXT NOT NULL REFERENCES workout_plans(id) ON DELETE CASCADE,
	exercise_id      TEXT REFERENCES exercises(id) ON DELETE SET NULL,
	position         INT NOT NULL CHECK (position >= 1),
	sets             INT,
	reps             INT,
	duration_seconds INT,
	distance_meters  INT,
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT plan_items_plan_position_key UNIQUE (plan_id, position) DEFERRABLE INITIALLY DEFERRED
);

CREATE INDEX IF NOT EXISTS idx_plan_items_exercise_id ON plan_items(exercise_id);

CREATE TABLE IF NOT EXISTS workout_logs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	plan_id    TEXT REFERENCES workout_plans(id) ON DELETE SET NULL,
	log_date   DATE NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_workout_logs_user_id ON workout_logs(user_id, log_date DESC);

CREATE TABLE IF NOT EXISTS weight_logs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	log_date   DATE NOT NULL,
	weight     DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_weight_logs_user_id ON weight_logs(user_id, log_date DESC);

CREATE TABLE IF NOT EXISTS goals (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type         TEXT NOT NULL CHECK (type IN ('weight', 'exercise')),
	target_value DOUBLE PRECISION NOT NULL,
	deadline     DATE,
	exercise_id  TEXT REFERENCES exercises(id) ON DELETE SET NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_goals_user_id ON goals(user_id);

CREATE TABLE IF NOT EXISTS workout_sessions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	plan_id       TEXT NOT NULL REFERENCES workout_plans(id) ON DELETE CASCADE,
	started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	ended_at      TIMESTAMPTZ,
	current_index INT NOT NULL DEFAULT 1
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_workout_sessions_one_active
	ON workout_sessions(user_id, plan_id) WHERE ended_at IS NULL;
`

// Migrate ensures tables exist. Call once at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
