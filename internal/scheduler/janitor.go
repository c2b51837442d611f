package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DowntimePurger removes downtime records that ended before a cutoff.
type DowntimePurger interface {
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor purges downtime records that ended longer than the retention
// period ago. It piggybacks on the dispatcher tick: the next run time is
// computed from a standard cron expression and checked once per tick.
type Janitor struct {
	downtimes DowntimePurger
	schedule  cron.Schedule
	retention time.Duration

	mu      sync.Mutex
	nextRun time.Time
}

// NewJanitor creates a janitor from a cron expression and retention period.
func NewJanitor(downtimes DowntimePurger, scheduleExpr string, retention time.Duration) (*Janitor, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", scheduleExpr, err)
	}

	return &Janitor{
		downtimes: downtimes,
		schedule:  schedule,
		retention: retention,
		nextRun:   schedule.Next(time.Now().UTC()),
	}, nil
}

// Due reports whether a purge run is due at the given instant.
func (j *Janitor) Due(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !now.Before(j.nextRun)
}

// Run purges expired downtime records and advances the next run time.
func (j *Janitor) Run(ctx context.Context, now time.Time) {
	cutoff := now.Add(-j.retention)

	count, err := j.downtimes.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Downtime purge failed", "error", err)
	} else {
		slog.Info("Downtime purge completed",
			"purged", count,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}

	j.mu.Lock()
	j.nextRun = j.schedule.Next(now)
	j.mu.Unlock()
}

// NextRun returns the next scheduled purge time.
func (j *Janitor) NextRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextRun
}
