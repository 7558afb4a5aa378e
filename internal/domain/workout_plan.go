// internal/domain/workout_plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan is a user-authored plan. It is the group within which
// plan item positions are kept dense.
type WorkoutPlan struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                 primitive.ObjectID `bson:"userId" json:"userId"` // owner
	Title                  string             `bson:"title" json:"title"`
	GoalText               string             `bson:"goalText,omitempty" json:"goalText,omitempty"`
	FrequencyPerWeek       int                `bson:"frequencyPerWeek" json:"frequencyPerWeek"`
	SessionDurationMinutes int                `bson:"sessionDurationMinutes" json:"sessionDurationMinutes"`
	// ItemsVersion is bumped by every item mutation. Writing it inside the
	// item transaction is what makes concurrent writers on one plan collide.
	ItemsVersion int64     `bson:"itemsVersion" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
