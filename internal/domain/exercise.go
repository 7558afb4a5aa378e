// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is an entry of the shared exercise library. Plan items and goals
// reference exercises but never own them.
type Exercise struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"` // unique across the library
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Instructions  string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	TargetMuscles string             `bson:"targetMuscles,omitempty" json:"targetMuscles,omitempty"` // e.g. "Chest, Shoulders, Triceps"
	Equipment     string             `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Difficulty    string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // "Beginner", "Intermediate", ...
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
