package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asoares/lull/internal/database"
	"github.com/asoares/lull/internal/model"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleService handles downtime schedule config acceptance and
// management.
type ScheduleService struct {
	schedules  *database.ScheduleRepository
	checkables *database.CheckableRepository
	locks      *database.LockRepository
	reconciler *Reconciler
	owner      string
	lockTTL    time.Duration
}

// NewScheduleService creates a new schedule service. owner identifies this
// instance for schedule lock ownership.
func NewScheduleService(
	schedules *database.ScheduleRepository,
	checkables *database.CheckableRepository,
	locks *database.LockRepository,
	reconciler *Reconciler,
	owner string,
	lockTTL time.Duration,
) *ScheduleService {
	return &ScheduleService{
		schedules:  schedules,
		checkables: checkables,
		locks:      locks,
		reconciler: reconciler,
		owner:      owner,
		lockTTL:    lockTTL,
	}
}

// Create accepts a new schedule: it validates the definition (including the
// ranges grammar), resolves the referenced checkable, persists the schedule
// and activates it with an immediate reconcile. Validation and reference
// failures are surfaced synchronously as the acceptance result.
func (s *ScheduleService) Create(ctx context.Context, schedule *model.DowntimeSchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	if _, err := s.checkables.GetByNames(ctx, schedule.HostName, schedule.ServiceName); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &model.ValidationError{
				Field:   "host_name",
				Message: fmt.Sprintf("schedule '%s' references a host/service which doesn't exist", schedule.Name),
			}
		}
		return fmt.Errorf("failed to resolve checkable: %w", err)
	}

	if _, err := s.schedules.GetByName(ctx, schedule.Name); err == nil {
		return &model.ValidationError{
			Field:   "short_name",
			Message: fmt.Sprintf("schedule '%s' already exists", schedule.Name),
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to check schedule name: %w", err)
	}

	schedule.Enabled = true
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return err
	}

	s.Activate(ctx, schedule)
	return nil
}

// Activate runs the immediate post-acceptance reconcile under the schedule
// lock. Reconcile failures here are logged, not returned: the schedule is
// already accepted and the dispatcher retries on its next tick.
func (s *ScheduleService) Activate(ctx context.Context, schedule *model.DowntimeSchedule) {
	acquired, err := s.locks.AcquireLock(ctx, schedule.ID, s.owner, s.lockTTL)
	if err != nil {
		slog.Warn("Failed to acquire lock for activation reconcile",
			"schedule_name", schedule.Name,
			"error", err,
		)
		return
	}
	if !acquired {
		slog.Debug("Schedule already being reconciled, skipping activation reconcile",
			"schedule_name", schedule.Name,
		)
		return
	}
	defer func() {
		if err := s.locks.ReleaseLock(ctx, schedule.ID, s.owner); err != nil {
			slog.Error("Failed to release schedule lock",
				"schedule_name", schedule.Name,
				"error", err,
			)
		}
	}()

	correlationID := uuid.New().String()
	if err := s.reconciler.Reconcile(ctx, schedule.ID.Hex(), correlationID); err != nil {
		slog.Warn("Activation reconcile failed, will retry on next tick",
			"correlation_id", correlationID,
			"schedule_name", schedule.Name,
			"error", err,
		)
	}
}

// GetByID retrieves a schedule by ID
func (s *ScheduleService) GetByID(ctx context.Context, id string) (*model.DowntimeSchedule, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid ID format: %w", err)
	}

	return s.schedules.GetByID(ctx, objID)
}

// List retrieves schedules with optional filtering by host name
func (s *ScheduleService) List(ctx context.Context, hostName string, page, limit int) ([]model.DowntimeSchedule, int64, error) {
	filter := bson.M{}
	if hostName != "" {
		filter["host_name"] = hostName
	}

	return s.schedules.List(ctx, filter, page, limit)
}

// Delete removes a schedule. Downtime records it already created are not
// retracted.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid ID format: %w", err)
	}

	return s.schedules.Delete(ctx, objID)
}
