package scanner

import (
	"sync"
	"time"

	"github.com/jsalter/lplate/internal/logbook"
)

// Stage is the named pipeline stage a scan job is in. Progress is
// reported by polling job snapshots; a page either completes in full
// or fails terminally, never partially.
type Stage string

const (
	StageQueued     Stage = "queued"
	StagePreparing  Stage = "preparing"
	StageExtracting Stage = "extracting"
	StageValidating Stage = "validating"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Job tracks one page scan from submission to completion.
type Job struct {
	mu sync.Mutex

	ID        string
	StudentID string
	Stage     Stage
	Error     string
	Result    *logbook.PageScanResult
	CreatedAt time.Time
	UpdatedAt time.Time

	// Not serialized; dropped once the job resolves.
	image    []byte
	mimeType string
}

// SetStage advances the job to the given stage.
func (j *Job) SetStage(stage Stage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Stage = stage
	j.UpdatedAt = time.Now().UTC()
}

// Fail marks the job terminally failed and releases the image bytes.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Stage = StageFailed
	j.Error = err.Error()
	j.image = nil
	j.UpdatedAt = time.Now().UTC()
}

// Complete records the page result and releases the image bytes.
func (j *Job) Complete(result *logbook.PageScanResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Stage = StageComplete
	j.Result = result
	j.image = nil
	j.UpdatedAt = time.Now().UTC()
}

// Snapshot is a read-only, JSON-safe copy of job state for polling.
type Snapshot struct {
	ID        string                  `json:"job_id"`
	StudentID string                  `json:"student_id"`
	Stage     Stage                   `json:"stage"`
	Error     string                  `json:"error,omitempty"`
	Result    *logbook.PageScanResult `json:"result,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Snapshot returns a copy of the job state safe to serve to clients.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:        j.ID,
		StudentID: j.StudentID,
		Stage:     j.Stage,
		Error:     j.Error,
		Result:    j.Result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

// NewJobStore creates a job store evicting jobs idle longer than ttl.
func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

// Put registers a job.
func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns the job with the given ID, or nil.
func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs that have been idle past the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}
