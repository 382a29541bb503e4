// Package storage defines persistence for chunks and the file-hash manifest.
package storage

import (
	"context"

	"github.com/siftd/sift/internal/models"
)

// Storage persists chunks and the per-file content-hash manifest. All chunk
// writes are keyed by deterministic chunk ID, so concurrent writes for
// different files never conflict and re-running a write is idempotent.
type Storage interface {
	// Chunk operations
	UpsertChunks(ctx context.Context, chunks []*models.Chunk) error
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	ChunksByPath(ctx context.Context, path string) ([]*models.Chunk, error)
	ChunkIDsByPath(ctx context.Context, path string) ([]string, error)
	DeleteChunks(ctx context.Context, ids []string) error
	// ListChunks returns up to limit chunks (all when limit <= 0); used to
	// rebuild the lexical index from a corpus snapshot.
	ListChunks(ctx context.Context, limit int) ([]*models.Chunk, error)

	// Stats
	CountChunks(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)

	// File-hash manifest: path -> content hash. Updated only after a
	// successful store mutation so a failed batch leaves reconcilable state.
	FileHash(ctx context.Context, path string) (string, error)
	SetFileHash(ctx context.Context, path, hash string) error
	DeleteFileHash(ctx context.Context, path string) error
	Manifest(ctx context.Context) (map[string]string, error)

	Close() error
}
