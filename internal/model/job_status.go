package model

import (
	"sync"
)

// JobStatus tracks an API-triggered async reconcile job.
type JobStatus struct {
	JobID         string `json:"job_id"`
	ScheduleID    string `json:"schedule_id"`
	Status        string `json:"status"` // "queued", "processing", "completed", "failed"
	CorrelationID string `json:"correlation_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// JobStatusStore is an in-memory store for async job statuses. Readers get
// copies; workers mutate through Update so a status is never written while a
// handler is marshaling it.
type JobStatusStore struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
}

// NewJobStatusStore creates a new job status store.
func NewJobStatusStore() *JobStatusStore {
	return &JobStatusStore{
		jobs: make(map[string]*JobStatus),
	}
}

// Set stores a job status.
func (s *JobStatusStore) Set(jobID string, status *JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = status
}

// Get retrieves a copy of a job status.
func (s *JobStatusStore) Get(jobID string) (*JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	copied := *status
	return &copied, true
}

// Update mutates a stored job status under the store's lock. It is a no-op
// for unknown job IDs.
func (s *JobStatusStore) Update(jobID string, fn func(*JobStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, exists := s.jobs[jobID]; exists {
		fn(status)
	}
}

// Delete removes a job status.
func (s *JobStatusStore) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}
