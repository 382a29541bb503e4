package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siftd/sift/internal/models"
)

func TestInlineExecutor_MergesResults(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]bool{"bad.go": true}}
	exec := NewInlineExecutor(proc)

	var last [2]int
	calls := 0
	progress := func(done, total int) {
		last = [2]int{done, total}
		calls++
	}

	job := &models.IndexJob{ID: "j1", Events: events("a.go", "bad.go", "c.go")}
	result, err := exec.Execute(context.Background(), job, progress)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Error("Success should be false when any event fails")
	}
	if result.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", result.FilesProcessed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want one", result.Errors)
	}
	if calls != 3 || last != [2]int{3, 3} {
		t.Errorf("progress calls = %d, last = %v, want 3 calls ending at 3/3", calls, last)
	}
}

func TestInlineExecutor_StopsOnCancelledContext(t *testing.T) {
	proc := &fakeProcessor{}
	exec := NewInlineExecutor(proc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &models.IndexJob{ID: "j1", Events: events("a.go", "b.go")}
	if _, err := exec.Execute(ctx, job, nil); err == nil {
		t.Fatal("expected context error")
	}
	if len(proc.paths()) != 0 {
		t.Errorf("processed %v after cancellation", proc.paths())
	}
}

func TestRemoteExecutor_DispatchesToWorker(t *testing.T) {
	var gotPath string
	var gotJob models.IndexJob
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotJob); err != nil {
			t.Errorf("decode job: %v", err)
		}
		json.NewEncoder(w).Encode(&models.IndexResult{FilesProcessed: 2, ChunksAdded: 5, Success: true})
	}))
	defer server.Close()

	proc := &fakeProcessor{}
	exec := NewRemoteExecutor(server.URL, proc, nil)

	var last [2]int
	job := &models.IndexJob{ID: "j1", Events: events("a.go", "b.go")}
	result, err := exec.Execute(context.Background(), job, func(done, total int) { last = [2]int{done, total} })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotPath != "/worker/jobs" {
		t.Errorf("worker path = %q, want /worker/jobs", gotPath)
	}
	if gotJob.ID != "j1" || len(gotJob.Events) != 2 {
		t.Errorf("worker received %+v", gotJob)
	}
	if !result.Success || result.ChunksAdded != 5 {
		t.Errorf("result = %+v", result)
	}
	if last != [2]int{2, 2} {
		t.Errorf("progress = %v, want 2/2", last)
	}
	if len(proc.paths()) != 0 {
		t.Error("fallback ran despite reachable worker")
	}
}

func TestRemoteExecutor_FallsBackWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens at this URL anymore

	proc := &fakeProcessor{}
	exec := NewRemoteExecutor(server.URL, proc, nil)

	job := &models.IndexJob{ID: "j1", Events: events("a.go", "b.go")}
	result, err := exec.Execute(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success || result.FilesProcessed != 2 {
		t.Errorf("result = %+v, want inline fallback to process both events", result)
	}
	if got := proc.paths(); len(got) != 2 {
		t.Errorf("fallback processed %v, want both events", got)
	}
}

func TestRemoteExecutor_WorkerErrorDoesNotFallBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	proc := &fakeProcessor{}
	exec := NewRemoteExecutor(server.URL, proc, nil)

	job := &models.IndexJob{ID: "j1", Events: events("a.go")}
	if _, err := exec.Execute(context.Background(), job, nil); err == nil {
		t.Fatal("expected error for worker failure status")
	}
	if len(proc.paths()) != 0 {
		t.Error("fallback ran on a worker-side failure")
	}
}
