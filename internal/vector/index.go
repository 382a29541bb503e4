// Package vector provides vector index storage and similarity search.
package vector

import "context"

// Index defines vector storage and similarity search. Writes are keyed by
// chunk ID with upsert semantics: inserting an existing ID replaces its vector.
type Index interface {
	Upsert(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity in [0,1] for unit vectors
}
