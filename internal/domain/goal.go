package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalType distinguishes body-weight goals from exercise achievement goals.
type GoalType string

const (
	GoalTypeWeight   GoalType = "weight"
	GoalTypeExercise GoalType = "exercise"
)

// Valid reports whether t is a known goal type.
func (t GoalType) Valid() bool {
	return t == GoalTypeWeight || t == GoalTypeExercise
}

// Goal is a user's target: a weight in kg, or reps/distance for an exercise.
type Goal struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Type        GoalType            `bson:"type" json:"type"`
	TargetValue float64             `bson:"targetValue" json:"targetValue"`
	Deadline    *time.Time          `bson:"deadline,omitempty" json:"deadline,omitempty"`
	ExerciseID  *primitive.ObjectID `bson:"exerciseId,omitempty" json:"exerciseId,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}
