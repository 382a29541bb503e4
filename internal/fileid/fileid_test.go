package fileid

import "testing"

func TestChunkID(t *testing.T) {
	a := ChunkID("internal/server/handlers.go", "0")
	if a != ChunkID("internal/server/handlers.go", "0") {
		t.Error("same (path, ordinal) must yield the same ID")
	}
	if a == ChunkID("internal/server/handlers.go", "1") {
		t.Error("different ordinals must yield different IDs")
	}
	if a == ChunkID("internal/server/server.go", "0") {
		t.Error("different paths must yield different IDs")
	}
	if len(a) != 64 {
		t.Errorf("ID length = %d, want 64 hex chars", len(a))
	}

	// Path cleaning keeps equivalent spellings identical.
	if a != ChunkID("internal/server/../server/handlers.go", "0") {
		t.Error("equivalent paths must yield the same ID")
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("package main"))
	if a != ContentHash([]byte("package main")) {
		t.Error("same content must yield the same hash")
	}
	if a == ContentHash([]byte("package main\n")) {
		t.Error("different content must yield different hashes")
	}
	if len(ContentHash(nil)) != 64 {
		t.Error("empty content should still hash")
	}
}
