// Package jobs provides the asynchronous indexing job queue with status
// tracking and a pluggable execution backend.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/siftd/sift/internal/models"
)

// Processor applies a single change event. The indexer satisfies this.
type Processor interface {
	ProcessChange(ctx context.Context, event models.ChangeEvent) *models.IndexResult
}

// ProgressFunc reports per-file progress while a job runs.
type ProgressFunc func(done, total int)

// Executor runs a job's change events and returns the aggregate result. Both
// implementations satisfy identical pre/post-conditions on job state: the
// queue owns all status transitions, executors only do the work.
type Executor interface {
	Execute(ctx context.Context, job *models.IndexJob, progress ProgressFunc) (*models.IndexResult, error)
}

// InlineExecutor runs jobs synchronously in-process.
type InlineExecutor struct {
	processor Processor
}

// NewInlineExecutor creates an in-process executor over processor.
func NewInlineExecutor(processor Processor) *InlineExecutor {
	return &InlineExecutor{processor: processor}
}

// Execute processes the job's events one at a time, continuing past per-file
// failures and reporting progress after each event.
func (e *InlineExecutor) Execute(ctx context.Context, job *models.IndexJob, progress ProgressFunc) (*models.IndexResult, error) {
	result := &models.IndexResult{Success: true}
	total := len(job.Events)
	for i, event := range job.Events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Merge(e.processor.ProcessChange(ctx, event))
		if progress != nil {
			progress(i+1, total)
		}
	}
	return result, nil
}

// RemoteExecutor dispatches jobs to an out-of-process worker over HTTP. The
// worker runs the same event-processing code path, so semantics are identical
// to inline execution. When the worker is unreachable the job runs inline
// instead.
type RemoteExecutor struct {
	baseURL  string
	client   *http.Client
	fallback *InlineExecutor
	logger   *zap.Logger
}

// NewRemoteExecutor creates an executor dispatching to the worker at baseURL,
// falling back to inline execution via processor when the worker is
// unreachable. logger may be nil.
func NewRemoteExecutor(baseURL string, processor Processor, logger *zap.Logger) *RemoteExecutor {
	return &RemoteExecutor{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Minute},
		fallback: NewInlineExecutor(processor),
		logger:   logger,
	}
}

// Execute posts the job to the worker and waits for its result. Dispatch
// failures fall back to inline execution; worker-side processing errors do
// not (resubmitting is the caller's call).
func (e *RemoteExecutor) Execute(ctx context.Context, job *models.IndexJob, progress ProgressFunc) (*models.IndexResult, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/worker/jobs", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("job worker unreachable, running inline", zap.String("job_id", job.ID), zap.Error(err))
		}
		return e.fallback.Execute(ctx, job, progress)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker returned status %d", resp.StatusCode)
	}
	var result models.IndexResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode worker result: %w", err)
	}
	if progress != nil {
		progress(len(job.Events), len(job.Events))
	}
	return &result, nil
}
