package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSession is a guided walk over a plan's items in position order.
// CurrentIndex is the position of the next item to complete.
type WorkoutSession struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID       primitive.ObjectID `bson:"planId" json:"planId"`
	StartedAt    time.Time          `bson:"startedAt" json:"startedAt"`
	EndedAt      *time.Time         `bson:"endedAt" json:"endedAt,omitempty"`
	CurrentIndex int                `bson:"currentIndex" json:"currentIndex"`
}

// Finished reports whether the session was ended.
func (s *WorkoutSession) Finished() bool {
	return s.EndedAt != nil
}
