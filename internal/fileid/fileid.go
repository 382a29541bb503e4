// Package fileid derives deterministic identities for files and chunks.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// ChunkID returns a stable chunk ID for (path, ordinal). The same pair always
// yields the same ID across re-indexing runs, which is what makes store
// upserts idempotent and lets the manifest and vector store be reconciled
// independently.
func ChunkID(path, ordinal string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized + "#" + ordinal))
	return hex.EncodeToString(hash[:])
}

// ContentHash returns the hex sha256 of content, used by the manifest and the
// watcher to detect genuine content changes independent of mtime.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
