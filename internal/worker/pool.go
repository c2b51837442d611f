package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPoolStopped is returned by Submit after the pool has shut down.
var ErrPoolStopped = errors.New("worker pool is stopped")

// ExecutorFunc processes one reconcile job.
type ExecutorFunc func(ctx context.Context, job Job)

// Pool manages a pool of worker goroutines for API-triggered reconciles,
// keeping request handlers non-blocking.
type Pool struct {
	workers    int
	jobs       chan Job
	executorFn ExecutorFunc
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once

	// mu guards closed so Submit never races the channel close in Stop.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new worker pool
func NewPool(workers int, jobQueueSize int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, jobQueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetExecutor sets the executor function that will process jobs
func (p *Pool) SetExecutor(fn ExecutorFunc) {
	p.executorFn = fn
}

// Start starts the worker pool
func (p *Pool) Start() {
	slog.Info("Starting reconcile worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops the worker pool gracefully, draining queued jobs first. The
// closed flag is flipped under the write lock before the channel closes, so
// any in-flight Submit either completes its send or observes the flag.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		slog.Info("Stopping reconcile worker pool")

		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		close(p.jobs)
		p.wg.Wait()
		p.cancel()

		slog.Info("Reconcile worker pool stopped")
	})
}

// Submit submits a job to the worker pool. Returns ErrPoolStopped once the
// pool has shut down.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		slog.Debug("Reconcile job submitted",
			"job_id", job.JobID,
			"schedule_id", job.ScheduleID,
			"correlation_id", job.CorrelationID,
		)
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	slog.Debug("Worker started", "worker_id", id)

	for job := range p.jobs {
		slog.Debug("Worker processing reconcile job",
			"worker_id", id,
			"job_id", job.JobID,
			"schedule_id", job.ScheduleID,
		)

		ctx := job.Context
		if ctx == nil {
			ctx = p.ctx
		}
		p.executorFn(ctx, job)
	}

	slog.Debug("Worker stopped", "worker_id", id)
}

// QueueLength returns the current number of jobs in the queue
func (p *Pool) QueueLength() int {
	return len(p.jobs)
}
