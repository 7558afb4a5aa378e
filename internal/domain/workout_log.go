package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutLog records a completed workout (or a step of one, when written by workout mode).
type WorkoutLog struct {
	ID     primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"` // nulled when the plan is deleted
	// LogDate is a calendar date, stored as UTC midnight.
	LogDate   time.Time `bson:"logDate" json:"logDate"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// WeightLog is a body-weight measurement in kilograms.
type WeightLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	LogDate   time.Time          `bson:"logDate" json:"logDate"`
	Weight    float64            `bson:"weight" json:"weight"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// DateOnly truncates t to UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
