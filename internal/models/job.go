package models

import "time"

// JobType selects a full re-index or an incremental batch.
type JobType string

const (
	JobIncremental JobType = "incremental"
	JobFull        JobType = "full"
)

// JobStatus is the lifecycle state of an IndexJob. Transitions are monotonic:
// Pending -> Processing -> {Completed, Failed, Cancelled}; terminal states are final.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// JobProgress tracks per-file progress of a processing job.
type JobProgress struct {
	FilesTotal int `json:"files_total"`
	FilesDone  int `json:"files_done"`
}

// IndexJob is an asynchronous indexing unit owned by the job queue.
type IndexJob struct {
	ID          string        `json:"id"`
	Type        JobType       `json:"type"`
	Events      []ChangeEvent `json:"events"`
	Status      JobStatus     `json:"status"`
	Progress    JobProgress   `json:"progress"`
	Result      *IndexResult  `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	FinishedAt  time.Time     `json:"finished_at,omitempty"`
}

// IndexResult aggregates the outcome of processing one or more change events.
// Per-file errors are collected rather than aborting the batch; Success is
// the logical AND of per-event successes.
type IndexResult struct {
	FilesProcessed int      `json:"files_processed"`
	ChunksAdded    int      `json:"chunks_added"`
	ChunksUpdated  int      `json:"chunks_updated"`
	ChunksRemoved  int      `json:"chunks_removed"`
	Errors         []string `json:"errors,omitempty"`
	Success        bool     `json:"success"`
}

// Merge folds another result into r.
func (r *IndexResult) Merge(other *IndexResult) {
	if other == nil {
		return
	}
	r.FilesProcessed += other.FilesProcessed
	r.ChunksAdded += other.ChunksAdded
	r.ChunksUpdated += other.ChunksUpdated
	r.ChunksRemoved += other.ChunksRemoved
	r.Errors = append(r.Errors, other.Errors...)
	r.Success = r.Success && other.Success
}
