package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/asoares/lull/internal/model"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tickInterval is the dispatcher cadence. It is an internal constant on
// purpose: every active schedule is re-evaluated once per minute and the
// rest of the system is tuned around that.
const tickInterval = 60 * time.Second

// ScheduleSource provides the set of active schedules to re-evaluate on each
// tick.
type ScheduleSource interface {
	FindActive(ctx context.Context) ([]model.DowntimeSchedule, error)
}

// Locker serializes reconciliations per schedule.
type Locker interface {
	AcquireLock(ctx context.Context, scheduleID primitive.ObjectID, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, scheduleID primitive.ObjectID, owner string) error
	ReleaseAllLocks(ctx context.Context, owner string) error
	CleanExpiredLocks(ctx context.Context) (int64, error)
}

// ReconcileFunc reconciles one schedule.
type ReconcileFunc func(ctx context.Context, scheduleID, correlationID string) error

// Options configures the dispatcher.
type Options struct {
	Enabled     bool
	LockTTL     time.Duration
	Concurrency int
}

// Scheduler is the periodic dispatcher: a single recurring timer that
// re-evaluates every active schedule so downtime windows are materialized
// just-in-time. A failure reconciling one schedule never prevents the others
// from being reconciled in the same tick.
type Scheduler struct {
	schedules ScheduleSource
	locks     Locker
	reconcile ReconcileFunc
	janitor   *Janitor
	opts      Options
	owner     string
	interval  time.Duration
	ticker    *time.Ticker
	stopChan  chan struct{}
	wg        sync.WaitGroup
	semaphore chan struct{}
	startOnce sync.Once
}

// New creates a new dispatcher. janitor may be nil.
func New(schedules ScheduleSource, locks Locker, reconcile ReconcileFunc, janitor *Janitor, opts Options) *Scheduler {
	// Instance identifier for lock ownership (hostname in Kubernetes)
	owner, err := os.Hostname()
	if err != nil {
		owner = uuid.New().String()
		slog.Warn("Failed to get hostname, using UUID as lock owner", "owner", owner)
	}

	return &Scheduler{
		schedules: schedules,
		locks:     locks,
		reconcile: reconcile,
		janitor:   janitor,
		opts:      opts,
		owner:     owner,
		interval:  tickInterval,
		stopChan:  make(chan struct{}),
		semaphore: make(chan struct{}, opts.Concurrency),
	}
}

// Owner returns the lock-owner identifier of this instance.
func (s *Scheduler) Owner() string {
	return s.owner
}

// Start begins the dispatcher loop. Starting twice is a no-op; only one
// timer ever runs.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.opts.Enabled {
		slog.Info("Scheduler is disabled by configuration")
		return
	}

	s.startOnce.Do(func() {
		slog.Info("Starting scheduler",
			"owner", s.owner,
			"tick_interval", s.interval,
			"lock_ttl", s.opts.LockTTL,
			"concurrency", s.opts.Concurrency,
		)

		s.ticker = time.NewTicker(s.interval)
		s.wg.Add(1)

		go s.run(ctx)
	})
}

// Stop gracefully stops the dispatcher
func (s *Scheduler) Stop(ctx context.Context) {
	if !s.opts.Enabled || s.ticker == nil {
		return
	}

	slog.Info("Stopping scheduler", "owner", s.owner)

	close(s.stopChan)
	s.ticker.Stop()

	// Wait for in-flight reconciles with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("All in-flight reconciles completed")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for in-flight reconciles to complete")
	}

	if err := s.locks.ReleaseAllLocks(context.Background(), s.owner); err != nil {
		slog.Error("Failed to release locks during shutdown", "error", err)
	}

	slog.Info("Scheduler stopped", "owner", s.owner)
}

// run is the main dispatcher loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	// Run immediately on start
	s.tick(ctx)

	for {
		select {
		case <-s.ticker.C:
			s.tick(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			slog.Info("Scheduler context done", "owner", s.owner)
			return
		}
	}
}

// tick processes one dispatcher tick
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	slog.Debug("Scheduler tick", "owner", s.owner, "time", now.Format(time.RFC3339))

	// Clean expired locks first
	if _, err := s.locks.CleanExpiredLocks(ctx); err != nil {
		slog.Error("Failed to clean expired locks", "error", err)
	}

	if s.janitor != nil && s.janitor.Due(now) {
		s.janitor.Run(ctx, now)
	}

	schedules, err := s.schedules.FindActive(ctx)
	if err != nil {
		slog.Error("Failed to find active schedules", "error", err)
		return
	}

	if len(schedules) == 0 {
		return
	}

	slog.Debug("Dispatching schedule reconciles",
		"owner", s.owner,
		"count", len(schedules),
	)

	for _, schedule := range schedules {
		acquired, err := s.locks.AcquireLock(ctx, schedule.ID, s.owner, s.opts.LockTTL)
		if err != nil {
			slog.Error("Failed to acquire schedule lock",
				"schedule_id", schedule.ID.Hex(),
				"schedule_name", schedule.Name,
				"error", err,
			)
			continue
		}

		if !acquired {
			slog.Debug("Schedule lock held elsewhere, skipping",
				"schedule_id", schedule.ID.Hex(),
				"schedule_name", schedule.Name,
			)
			continue
		}

		s.wg.Add(1)
		go s.reconcileSchedule(ctx, schedule)
	}
}

// reconcileSchedule reconciles a single schedule with lock management.
// Errors are logged and implicitly retried on the next tick; no failure
// marker is persisted.
func (s *Scheduler) reconcileSchedule(ctx context.Context, schedule model.DowntimeSchedule) {
	defer s.wg.Done()

	// Acquire semaphore slot (limit concurrent reconciles)
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-s.stopChan:
		s.releaseLock(ctx, schedule.ID)
		return
	case <-ctx.Done():
		s.releaseLock(ctx, schedule.ID)
		return
	}
	defer s.releaseLock(ctx, schedule.ID)

	correlationID := uuid.New().String()

	start := time.Now()
	err := s.reconcile(ctx, schedule.ID.Hex(), correlationID)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Schedule reconcile failed",
			"schedule_id", schedule.ID.Hex(),
			"schedule_name", schedule.Name,
			"correlation_id", correlationID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return
	}

	slog.Debug("Schedule reconcile completed",
		"schedule_id", schedule.ID.Hex(),
		"schedule_name", schedule.Name,
		"correlation_id", correlationID,
		"duration_ms", duration.Milliseconds(),
	)
}

// releaseLock releases the lock for a schedule
func (s *Scheduler) releaseLock(ctx context.Context, scheduleID primitive.ObjectID) {
	if err := s.locks.ReleaseLock(ctx, scheduleID, s.owner); err != nil {
		slog.Error("Failed to release schedule lock",
			"schedule_id", scheduleID.Hex(),
			"owner", s.owner,
			"error", err,
		)
	}
}
