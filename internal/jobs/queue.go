package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siftd/sift/internal/models"
)

// ErrNotFound is returned for unknown job IDs.
var ErrNotFound = errors.New("job not found")

// Queue owns IndexJobs and their state machine. Submit enqueues without
// blocking; jobs run on the configured executor. Failed jobs are not retried
// automatically; resubmitting the same events is safe because the indexer is
// idempotent.
type Queue struct {
	executor Executor
	history  int

	mu    sync.RWMutex
	jobs  map[string]*models.IndexJob
	order []string // submission order, oldest first
	wg    sync.WaitGroup

	logger *zap.Logger // optional; when set, logs debug events
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) QueueOption {
	return func(q *Queue) { q.logger = l }
}

// WithHistory caps how many terminal jobs are retained (default 100).
func WithHistory(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.history = n
		}
	}
}

// NewQueue creates a queue running jobs on executor.
func NewQueue(executor Executor, opts ...QueueOption) *Queue {
	q := &Queue{
		executor: executor,
		history:  100,
		jobs:     make(map[string]*models.IndexJob),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit enqueues a job for the given events and returns its ID immediately.
func (q *Queue) Submit(ctx context.Context, events []models.ChangeEvent, jobType models.JobType) string {
	job := &models.IndexJob{
		ID:          uuid.New().String(),
		Type:        jobType,
		Events:      events,
		Status:      models.JobPending,
		Progress:    models.JobProgress{FilesTotal: len(events)},
		SubmittedAt: time.Now(),
	}
	q.mu.Lock()
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	q.trimLocked()
	q.mu.Unlock()
	if q.logger != nil {
		q.logger.Debug("job submitted", zap.String("job_id", job.ID), zap.Int("events", len(events)), zap.String("type", string(jobType)))
	}
	q.wg.Add(1)
	go q.run(ctx, job.ID)
	return job.ID
}

func (q *Queue) run(ctx context.Context, jobID string) {
	defer q.wg.Done()
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != models.JobPending {
		// Cancelled (or evicted) before it started.
		q.mu.Unlock()
		return
	}
	job.Status = models.JobProcessing
	job.StartedAt = time.Now()
	snapshot := *job
	q.mu.Unlock()

	progress := func(done, total int) {
		q.mu.Lock()
		if j, ok := q.jobs[jobID]; ok {
			j.Progress.FilesDone = done
			j.Progress.FilesTotal = total
		}
		q.mu.Unlock()
	}
	result, err := q.executor.Execute(ctx, &snapshot, progress)

	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok = q.jobs[jobID]
	if !ok {
		return
	}
	job.Result = result
	job.FinishedAt = time.Now()
	switch {
	case err != nil:
		job.Status = models.JobFailed
		job.Error = err.Error()
	case result != nil && !result.Success:
		job.Status = models.JobFailed
		job.Error = strings.Join(result.Errors, "; ")
	default:
		job.Status = models.JobCompleted
	}
	if q.logger != nil {
		q.logger.Debug("job finished", zap.String("job_id", jobID), zap.String("status", string(job.Status)))
	}
}

// GetStatus returns a copy of the job, or ErrNotFound.
func (q *Queue) GetStatus(jobID string) (*models.IndexJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

// Cancel marks a Pending job Cancelled. Jobs that already started cannot be
// cancelled; in-flight chunk and embedding work is never interrupted.
func (q *Queue) Cancel(jobID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return false, ErrNotFound
	}
	if job.Status != models.JobPending {
		return false, nil
	}
	job.Status = models.JobCancelled
	job.FinishedAt = time.Now()
	return true, nil
}

// ListRecent returns up to n jobs, most recently submitted first.
func (q *Queue) ListRecent(n int) []*models.IndexJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if n <= 0 || n > len(q.order) {
		n = len(q.order)
	}
	out := make([]*models.IndexJob, 0, n)
	for i := len(q.order) - 1; i >= 0 && len(out) < n; i-- {
		if job, ok := q.jobs[q.order[i]]; ok {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out
}

// Wait blocks until all submitted jobs have finished. Used for shutdown and
// tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// trimLocked evicts the oldest terminal jobs beyond the history cap.
func (q *Queue) trimLocked() {
	excess := len(q.order) - q.history
	if excess <= 0 {
		return
	}
	kept := q.order[:0]
	for _, id := range q.order {
		if excess > 0 {
			if job, ok := q.jobs[id]; ok && job.Status.Terminal() {
				delete(q.jobs, id)
				excess--
				continue
			}
		}
		kept = append(kept, id)
	}
	q.order = kept
}
