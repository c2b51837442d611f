package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Downtime is a persisted, time-bounded maintenance window on a checkable.
// ScheduledBy carries the name of the owning schedule, or is empty for
// manually created downtimes. The schedule holds no pointer back; ownership
// is discovered by scanning a checkable's downtimes.
type Downtime struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CheckableID primitive.ObjectID `json:"checkable_id" bson:"checkable_id"`
	Author      string             `json:"author" bson:"author"`
	Comment     string             `json:"comment" bson:"comment"`
	EntryTime   time.Time          `json:"entry_time" bson:"entry_time"`
	StartTime   time.Time          `json:"start_time" bson:"start_time"`
	EndTime     time.Time          `json:"end_time" bson:"end_time"`
	Fixed       bool               `json:"fixed" bson:"fixed"`
	// Duration is the trigger window length for flexible downtimes, in
	// seconds. Ignored when Fixed is true.
	Duration    int64  `json:"duration,omitempty" bson:"duration,omitempty"`
	ScheduledBy string `json:"scheduled_by,omitempty" bson:"scheduled_by,omitempty"`
}

// Validate validates a downtime record.
func (d *Downtime) Validate() error {
	if d.CheckableID.IsZero() {
		return errors.New("checkable reference is required")
	}
	if d.StartTime.IsZero() || d.EndTime.IsZero() {
		return errors.New("start and end times are required")
	}
	if !d.EndTime.After(d.StartTime) {
		return errors.New("downtime must end after it starts")
	}
	if !d.Fixed && d.Duration <= 0 {
		return errors.New("duration is required for flexible downtimes")
	}
	if d.EntryTime.IsZero() {
		d.EntryTime = time.Now().UTC()
	}
	return nil
}
