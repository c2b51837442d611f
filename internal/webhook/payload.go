package webhook

import (
	"time"
)

// Event names delivered to the configured webhook.
const (
	EventDowntimeCreated = "downtime.created"
)

// DowntimeEvent is the payload delivered when a reconcile materializes a new
// downtime record.
type DowntimeEvent struct {
	Event        string    `json:"event"`
	DowntimeID   string    `json:"downtime_id"`
	ScheduleName string    `json:"schedule_name,omitempty"`
	Checkable    string    `json:"checkable"`
	Author       string    `json:"author,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Fixed        bool      `json:"fixed"`
	Duration     int64     `json:"duration,omitempty"`
	Timestamp    string    `json:"timestamp"`
}
