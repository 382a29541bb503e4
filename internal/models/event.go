package models

import "time"

// ChangeKind classifies a filesystem change.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeMoved    ChangeKind = "moved"
)

// ChangeEvent describes one filesystem change. Events are produced by the
// watcher (debounced, last-write-wins per path) and retired by the indexer.
// Deletions bypass debouncing entirely.
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	Path      string     `json:"path"`
	OldPath   string     `json:"old_path,omitempty"` // set for moves
	Timestamp time.Time  `json:"timestamp"`
}
