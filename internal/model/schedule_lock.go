package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleLock serializes reconciliations of a single schedule. A reconcile
// runs only while its holder owns the lock; the TTL recovers locks left
// behind by crashed instances.
type ScheduleLock struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ScheduleID primitive.ObjectID `json:"schedule_id" bson:"schedule_id"`
	LockedBy   string             `json:"locked_by" bson:"locked_by"`
	LockedAt   time.Time          `json:"locked_at" bson:"locked_at"`
	ExpiresAt  time.Time          `json:"expires_at" bson:"expires_at"`
}
