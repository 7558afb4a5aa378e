// internal/domain/plan_item.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanItem is a single exercise entry within a WorkoutPlan.
// Position is 1-based and, per plan, always forms the dense range 1..N.
type PlanItem struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID primitive.ObjectID `bson:"planId" json:"planId"` // never changes
	// ExerciseID is nil once the referenced exercise was deleted with the "detach" policy.
	ExerciseID *primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Position   int                 `bson:"position" json:"position"`

	Sets            *int   `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            *int   `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationSeconds *int   `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	DistanceMeters  *int   `bson:"distanceMeters,omitempty" json:"distanceMeters,omitempty"`
	Notes           string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanItemFields is the item payload a caller may set. It is opaque to the ordering engine.
type PlanItemFields struct {
	Sets            *int
	Reps            *int
	DurationSeconds *int
	DistanceMeters  *int
	Notes           string
}

// ApplyFields replaces the item payload with f.
func (i *PlanItem) ApplyFields(f PlanItemFields) {
	i.Sets = f.Sets
	i.Reps = f.Reps
	i.DurationSeconds = f.DurationSeconds
	i.DistanceMeters = f.DistanceMeters
	i.Notes = f.Notes
}
