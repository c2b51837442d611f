package worker

import (
	"context"
)

// Job represents a schedule reconcile job
type Job struct {
	JobID         string
	ScheduleID    string
	CorrelationID string
	Context       context.Context
}
