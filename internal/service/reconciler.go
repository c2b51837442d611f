package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/asoares/lull/internal/model"
	"github.com/asoares/lull/internal/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleStore is the subset of the schedule repository the reconciler
// needs.
type ScheduleStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.DowntimeSchedule, error)
}

// CheckableDirectory looks up the monitored entity a schedule is attached
// to.
type CheckableDirectory interface {
	GetByNames(ctx context.Context, hostName, serviceName string) (*model.Checkable, error)
}

// DowntimeStore owns persisted downtime records for checkables.
type DowntimeStore interface {
	ListForCheckable(ctx context.Context, checkableID primitive.ObjectID) ([]model.Downtime, error)
	Create(ctx context.Context, downtime *model.Downtime) (primitive.ObjectID, error)
	SetScheduledBy(ctx context.Context, id primitive.ObjectID, scheduleName string) error
}

// DowntimeNotifier delivers downtime lifecycle events to external systems.
type DowntimeNotifier interface {
	NotifyDowntimeCreated(ctx context.Context, event webhook.DowntimeEvent) error
}

// Reconciler ensures that every schedule has exactly one upcoming downtime
// record materialized at any time. Reconcile is idempotent; callers
// serialize invocations per schedule through the schedule lock.
type Reconciler struct {
	schedules  ScheduleStore
	checkables CheckableDirectory
	downtimes  DowntimeStore
	finder     *SegmentFinder
	notifier   DowntimeNotifier // optional
	now        func() time.Time
}

// NewReconciler creates a reconciler. notifier may be nil to disable
// notifications.
func NewReconciler(
	schedules ScheduleStore,
	checkables CheckableDirectory,
	downtimes DowntimeStore,
	finder *SegmentFinder,
	notifier DowntimeNotifier,
) *Reconciler {
	return &Reconciler{
		schedules:  schedules,
		checkables: checkables,
		downtimes:  downtimes,
		finder:     finder,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Reconcile materializes the next downtime record for a schedule if none is
// pending: it scans the checkable's records for one owned by this schedule
// that has not started yet, and only when none exists resolves the next
// segment and creates a record tagged with the schedule's name. Finding no
// upcoming segment is not an error; the next dispatcher tick retries from
// the then-current time.
func (r *Reconciler) Reconcile(ctx context.Context, scheduleID string, correlationID string) error {
	objID, err := primitive.ObjectIDFromHex(scheduleID)
	if err != nil {
		return fmt.Errorf("invalid schedule ID: %w", err)
	}

	schedule, err := r.schedules.GetByID(ctx, objID)
	if err != nil {
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	if !schedule.Enabled {
		slog.Debug("Schedule is disabled, skipping reconcile",
			"correlation_id", correlationID,
			"schedule_name", schedule.Name,
		)
		return nil
	}

	// Checkables can be deleted while schedules referencing them live on, so
	// the lookup is re-validated on every reconcile. Failure is a
	// configuration error for this schedule, not a transient condition.
	checkable, err := r.checkables.GetByNames(ctx, schedule.HostName, schedule.ServiceName)
	if err != nil {
		return fmt.Errorf("schedule '%s' references a host/service which doesn't exist: %w", schedule.Name, err)
	}

	now := r.now()

	downtimes, err := r.downtimes.ListForCheckable(ctx, checkable.ID)
	if err != nil {
		return fmt.Errorf("failed to list downtimes: %w", err)
	}

	for _, downtime := range downtimes {
		if downtime.ScheduledBy != schedule.Name || downtime.StartTime.Before(now) {
			continue
		}

		// A downtime owned by this schedule hasn't started yet - done.
		slog.Debug("Upcoming downtime already materialized",
			"correlation_id", correlationID,
			"schedule_name", schedule.Name,
			"downtime_id", downtime.ID.Hex(),
			"start_time", downtime.StartTime.Format(time.RFC3339),
		)
		return nil
	}

	segment := r.finder.NextSegment(schedule.Ranges, now)
	if segment.IsZero() {
		slog.Debug("No upcoming downtime segment resolvable",
			"correlation_id", correlationID,
			"schedule_name", schedule.Name,
		)
		return nil
	}

	downtime := &model.Downtime{
		CheckableID: checkable.ID,
		Author:      schedule.Author,
		Comment:     schedule.Comment,
		EntryTime:   now.UTC(),
		StartTime:   segment.Begin,
		EndTime:     segment.End,
		Fixed:       schedule.Fixed,
		Duration:    schedule.Duration,
	}

	downtimeID, err := r.downtimes.Create(ctx, downtime)
	if err != nil {
		return fmt.Errorf("failed to create downtime: %w", err)
	}

	if err := r.downtimes.SetScheduledBy(ctx, downtimeID, schedule.Name); err != nil {
		return fmt.Errorf("failed to tag downtime: %w", err)
	}

	slog.Info("Created scheduled downtime",
		"correlation_id", correlationID,
		"schedule_name", schedule.Name,
		"checkable", checkable.Key(),
		"downtime_id", downtimeID.Hex(),
		"start_time", segment.Begin.Format(time.RFC3339),
		"end_time", segment.End.Format(time.RFC3339),
	)

	if r.notifier != nil {
		event := webhook.DowntimeEvent{
			Event:        webhook.EventDowntimeCreated,
			DowntimeID:   downtimeID.Hex(),
			ScheduleName: schedule.Name,
			Checkable:    checkable.Key(),
			Author:       schedule.Author,
			Comment:      schedule.Comment,
			StartTime:    segment.Begin,
			EndTime:      segment.End,
			Fixed:        schedule.Fixed,
			Duration:     schedule.Duration,
		}
		if err := r.notifier.NotifyDowntimeCreated(ctx, event); err != nil {
			// Notification failures never fail the reconcile; the record is
			// already persisted.
			slog.Warn("Failed to deliver downtime notification",
				"correlation_id", correlationID,
				"downtime_id", downtimeID.Hex(),
				"error", err,
			)
		}
	}

	return nil
}
