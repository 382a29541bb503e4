// Package lexical provides BM25 keyword indexing and search over chunks.
package lexical

import (
	"context"

	"github.com/siftd/sift/internal/models"
)

// Index defines lexical search operations over chunks. It is kept in sync
// incrementally by the indexer and can be rebuilt from a store snapshot when
// opened empty.
type Index interface {
	Index(ctx context.Context, chunk *models.Chunk) error
	IndexBatch(ctx context.Context, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, k int) ([]*Result, error)
	Delete(ctx context.Context, ids []string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single lexical search hit with its raw BM25 relevance score.
type Result struct {
	ID    string
	Score float64
}
