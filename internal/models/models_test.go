package models

import (
	"errors"
	"testing"
)

func TestSearchQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   SearchQuery
		wantErr bool
	}{
		{"valid", SearchQuery{Query: "foo"}, false},
		{"valid with limits", SearchQuery{Query: "foo", KFinal: 5, MaxTokens: 100}, false},
		{"empty query", SearchQuery{}, true},
		{"negative k", SearchQuery{Query: "foo", KVector: -1}, true},
		{"negative tokens", SearchQuery{Query: "foo", MaxTokens: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{JobCompleted, JobFailed, JobCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobPending, JobProcessing} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestIndexResultMerge(t *testing.T) {
	r := IndexResult{Success: true}
	r.Merge(&IndexResult{FilesProcessed: 1, ChunksAdded: 3, Success: true})
	r.Merge(&IndexResult{FilesProcessed: 1, ChunksUpdated: 2, ChunksRemoved: 1, Errors: []string{"a.go: boom"}, Success: false})
	r.Merge(nil)

	if r.FilesProcessed != 2 || r.ChunksAdded != 3 || r.ChunksUpdated != 2 || r.ChunksRemoved != 1 {
		t.Errorf("counts = %+v", r)
	}
	if r.Success {
		t.Error("Success should be false after merging a failure")
	}
	if len(r.Errors) != 1 {
		t.Errorf("Errors = %v", r.Errors)
	}

	// Once false, success never recovers.
	r.Merge(&IndexResult{Success: true})
	if r.Success {
		t.Error("Success must stay false")
	}
}

func TestChunkKey(t *testing.T) {
	c := Chunk{Path: "a.go", Ordinal: "2"}
	if c.Key() != "a.go#2" {
		t.Errorf("Key = %q, want a.go#2", c.Key())
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("base")
	wrapped := []error{
		&FileReadError{Path: "a.go", Err: base},
		&EmbeddingProviderError{Err: base},
		&StoreUnavailableError{Err: base},
		&ConfigurationError{Key: "hybrid", Err: base},
		&CacheUnavailableError{Err: base},
	}
	for _, err := range wrapped {
		if !errors.Is(err, base) {
			t.Errorf("%T does not unwrap to the base error", err)
		}
		if err.Error() == "" {
			t.Errorf("%T has empty message", err)
		}
	}
}
