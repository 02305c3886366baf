package handlers

import (
	"sync"
	"time"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// EnrollJob represents an async enrollment run.
type EnrollJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Current     string     `json:"current,omitempty"`
	Done        int        `json:"done"`
	Total       int        `json:"total"`
	Enrolled    int        `json:"enrolled"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	mu sync.RWMutex
}

// SetProgress updates the job's progress counters.
func (j *EnrollJob) SetProgress(name string, done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobStatusRunning
	j.Current = name
	j.Done = done
	j.Total = total
}

// Complete marks the job finished with the number of enrolled identities.
func (j *EnrollJob) Complete(enrolled int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Current = ""
	j.Enrolled = enrolled
	j.CompletedAt = &now
}

// Fail marks the job failed.
func (j *EnrollJob) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.Status = JobStatusFailed
	j.Error = err.Error()
	j.CompletedAt = &now
}

// Snapshot returns a copy safe to serialize while the job runs.
func (j *EnrollJob) Snapshot() EnrollJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return EnrollJob{
		ID:          j.ID,
		Status:      j.Status,
		Current:     j.Current,
		Done:        j.Done,
		Total:       j.Total,
		Enrolled:    j.Enrolled,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*EnrollJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*EnrollJob),
	}
}

// CreateJob creates a new enrollment job.
func (m *JobManager) CreateJob(id string) *EnrollJob {
	job := &EnrollJob{
		ID:        id,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *EnrollJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}
