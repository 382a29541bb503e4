// Package models defines core data structures for chunks, change events, jobs, and search results.
package models

import "time"

// ChunkKind distinguishes code chunks (declaration-aware splitting) from plain text.
type ChunkKind string

const (
	ChunkKindCode ChunkKind = "code"
	ChunkKindText ChunkKind = "text"
)

// ChunkMetadata holds per-chunk signals derived from the source file.
// It is a fixed struct rather than an open map so that consumers get
// compile-time safety on field access.
type ChunkMetadata struct {
	Language         string  `json:"language" db:"language"`
	ImportanceScore  float64 `json:"importance_score" db:"importance_score"`
	ComplexityScore  float64 `json:"complexity_score" db:"complexity_score"`
	CommentRatio     float64 `json:"comment_ratio" db:"comment_ratio"`
	HasTests         bool    `json:"has_tests" db:"has_tests"`
	HasDocumentation bool    `json:"has_documentation" db:"has_documentation"`
	IsConfig         bool    `json:"is_config" db:"is_config"`
	IsGenerated      bool    `json:"is_generated" db:"is_generated"`
	// Truncated is set by the context optimizer when the chunk content was
	// token-sliced to fit a budget. TruncateNote describes the cut.
	Truncated    bool   `json:"truncated,omitempty" db:"-"`
	TruncateNote string `json:"truncate_note,omitempty" db:"-"`
}

// Chunk is the unit of indexing and retrieval: a token-bounded slice of a file.
// ID is a deterministic hash of (path, ordinal), so re-indexing an unchanged
// file produces the same IDs and upserts replace rather than duplicate.
type Chunk struct {
	ID        string        `json:"id" db:"id"`
	Path      string        `json:"path" db:"path"`
	Ordinal   string        `json:"ordinal" db:"ordinal"` // "3" or "3.1" for oversized declaration windows
	Content   string        `json:"content" db:"content"`
	Kind      ChunkKind     `json:"kind" db:"kind"`
	Tokens    int           `json:"tokens" db:"tokens"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"-" db:"-"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// Key returns the deduplication key used by search merge: one live hit per
// (path, ordinal) regardless of which signal produced it.
func (c *Chunk) Key() string {
	return c.Path + "#" + c.Ordinal
}
