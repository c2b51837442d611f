package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/asoares/lull/internal/database"
	"github.com/asoares/lull/internal/model"
	"github.com/asoares/lull/internal/worker"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AsyncReconciler runs API-triggered reconciles through a worker pool,
// serialized against the dispatcher by the schedule lock.
type AsyncReconciler struct {
	reconciler *Reconciler
	locks      *database.LockRepository
	pool       *worker.Pool
	jobStore   *model.JobStatusStore
	owner      string
	lockTTL    time.Duration
}

// NewAsyncReconciler creates a new async reconciler and wires itself as the
// pool's executor.
func NewAsyncReconciler(
	reconciler *Reconciler,
	locks *database.LockRepository,
	pool *worker.Pool,
	owner string,
	lockTTL time.Duration,
) *AsyncReconciler {
	ar := &AsyncReconciler{
		reconciler: reconciler,
		locks:      locks,
		pool:       pool,
		jobStore:   model.NewJobStatusStore(),
		owner:      owner,
		lockTTL:    lockTTL,
	}
	pool.SetExecutor(ar.execute)
	return ar
}

// SubmitJob queues a reconcile for async execution and returns a job ID for
// status polling.
func (ar *AsyncReconciler) SubmitJob(ctx context.Context, scheduleID string) (string, error) {
	jobID := uuid.New().String()
	correlationID := uuid.New().String()

	ar.jobStore.Set(jobID, &model.JobStatus{
		JobID:         jobID,
		ScheduleID:    scheduleID,
		Status:        "queued",
		CorrelationID: correlationID,
	})

	err := ar.pool.Submit(worker.Job{
		JobID:         jobID,
		ScheduleID:    scheduleID,
		CorrelationID: correlationID,
	})
	if err != nil {
		ar.jobStore.Delete(jobID)
		return "", err
	}

	return jobID, nil
}

// GetJobStatus retrieves the status of an async job
func (ar *AsyncReconciler) GetJobStatus(jobID string) (*model.JobStatus, bool) {
	return ar.jobStore.Get(jobID)
}

// execute runs one queued reconcile under the schedule lock.
func (ar *AsyncReconciler) execute(ctx context.Context, job worker.Job) {
	ar.setStatus(job.JobID, "processing", "")

	objID, err := primitive.ObjectIDFromHex(job.ScheduleID)
	if err != nil {
		ar.setStatus(job.JobID, "failed", "invalid schedule ID")
		return
	}

	acquired, err := ar.locks.AcquireLock(ctx, objID, ar.owner, ar.lockTTL)
	if err != nil {
		ar.setStatus(job.JobID, "failed", err.Error())
		return
	}
	if !acquired {
		ar.setStatus(job.JobID, "failed", "schedule is already being reconciled")
		return
	}
	defer func() {
		if err := ar.locks.ReleaseLock(ctx, objID, ar.owner); err != nil {
			slog.Error("Failed to release schedule lock",
				"job_id", job.JobID,
				"schedule_id", job.ScheduleID,
				"error", err,
			)
		}
	}()

	slog.Info("Starting async reconcile",
		"job_id", job.JobID,
		"correlation_id", job.CorrelationID,
		"schedule_id", job.ScheduleID,
	)

	if err := ar.reconciler.Reconcile(ctx, job.ScheduleID, job.CorrelationID); err != nil {
		ar.setStatus(job.JobID, "failed", err.Error())
		slog.Error("Async reconcile failed",
			"job_id", job.JobID,
			"correlation_id", job.CorrelationID,
			"error", err,
		)
		return
	}

	ar.setStatus(job.JobID, "completed", "")
	slog.Info("Async reconcile completed",
		"job_id", job.JobID,
		"correlation_id", job.CorrelationID,
	)
}

func (ar *AsyncReconciler) setStatus(jobID, status, errMsg string) {
	ar.jobStore.Update(jobID, func(st *model.JobStatus) {
		st.Status = status
		st.Error = errMsg
	})
}
