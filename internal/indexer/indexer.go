// Package indexer converts change events into idempotent store mutations:
// chunking, metadata enhancement, embedding, and upsert/delete of chunk IDs.
package indexer

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/siftd/sift/internal/chunk"
	"github.com/siftd/sift/internal/embedding"
	"github.com/siftd/sift/internal/fileid"
	"github.com/siftd/sift/internal/lexical"
	"github.com/siftd/sift/internal/meta"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/storage"
	"github.com/siftd/sift/internal/vector"
)

// embedConcurrency bounds parallel embedding batches per file.
const embedConcurrency = 4

// Indexer turns change events into store mutations. All writes are keyed by
// deterministic chunk identity, so re-processing identical input yields
// identical state.
type Indexer struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.Index
	lexicalIndex lexical.Index
	chunker      *chunk.Chunker
	enhancer     *meta.Enhancer
	maxFileSize  int64
	batchSize    int
	logger       *zap.Logger // optional; when set, logs debug events
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// WithMaxFileSize sets the size ceiling in bytes; larger files fail with a
// FileReadError. Zero disables the ceiling.
func WithMaxFileSize(n int64) Option {
	return func(idx *Indexer) { idx.maxFileSize = n }
}

// WithEmbedBatchSize sets how many chunk texts are embedded per provider
// call.
func WithEmbedBatchSize(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// New creates an indexer with the given dependencies.
func New(
	storage storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.Index,
	lexicalIndex lexical.Index,
	chunker *chunk.Chunker,
	enhancer *meta.Enhancer,
	opts ...Option,
) *Indexer {
	idx := &Indexer{
		storage:      storage,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		lexicalIndex: lexicalIndex,
		chunker:      chunker,
		enhancer:     enhancer,
		batchSize:    32,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// ProcessChange applies one change event to the store. It never panics the
// batch: failures are recorded in the result and Success is set false.
func (idx *Indexer) ProcessChange(ctx context.Context, event models.ChangeEvent) *models.IndexResult {
	result := &models.IndexResult{Success: true}
	switch event.Kind {
	case models.ChangeDeleted:
		idx.deletePath(ctx, event.Path, result)
	case models.ChangeMoved:
		if event.OldPath != "" && event.OldPath != event.Path {
			idx.deletePath(ctx, event.OldPath, result)
		}
		idx.indexPath(ctx, event.Path, result)
	case models.ChangeCreated, models.ChangeModified:
		idx.indexPath(ctx, event.Path, result)
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown change kind %q", event.Path, event.Kind))
		result.Success = false
	}
	return result
}

// ProcessBatch applies events one by one, continuing past per-file failures.
// Batch success is the logical AND of per-event successes.
func (idx *Indexer) ProcessBatch(ctx context.Context, events []models.ChangeEvent) *models.IndexResult {
	result := &models.IndexResult{Success: true}
	for _, event := range events {
		result.Merge(idx.ProcessChange(ctx, event))
	}
	return result
}

// deletePath removes every live chunk for path from all indices and clears
// its manifest entry. No chunking or embedding happens for deletions.
func (idx *Indexer) deletePath(ctx context.Context, path string, result *models.IndexResult) {
	ids, err := idx.storage.ChunkIDsByPath(ctx, path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if err := idx.lexicalIndex.Delete(ctx, ids); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if err := idx.vectorIndex.Remove(ctx, ids); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if err := idx.storage.DeleteChunks(ctx, ids); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if err := idx.storage.DeleteFileHash(ctx, path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	result.FilesProcessed++
	result.ChunksRemoved += len(ids)
	if idx.logger != nil {
		idx.logger.Debug("indexer deleted path", zap.String("path", path), zap.Int("chunks", len(ids)))
	}
}

// indexPath re-indexes one file: chunk, enhance, diff against existing IDs,
// embed the new set in bounded batches, upsert, delete leftovers, and update
// the manifest last.
func (idx *Indexer) indexPath(ctx context.Context, path string, result *models.IndexResult) {
	content, modTime, err := idx.readFile(path)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Success = false
		return
	}

	// Unchanged content is a no-op; the manifest hash is written only after a
	// fully successful pass, so a match means the stores already hold this
	// content.
	newHash := fileid.ContentHash(content)
	if prevHash, err := idx.storage.FileHash(ctx, path); err == nil && prevHash == newHash {
		result.FilesProcessed++
		if idx.logger != nil {
			idx.logger.Debug("indexer skipped unchanged path", zap.String("path", path))
		}
		return
	}

	chunks := idx.chunker.Chunk(path, string(content))
	metadata := idx.enhancer.Enhance(path, string(content), modTime)
	for _, ch := range chunks {
		ch.Metadata = metadata
	}

	oldIDs, err := idx.storage.ChunkIDsByPath(ctx, path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	oldSet := make(map[string]bool, len(oldIDs))
	for _, id := range oldIDs {
		oldSet[id] = true
	}
	newSet := make(map[string]bool, len(chunks))
	added, updated := 0, 0
	for _, ch := range chunks {
		newSet[ch.ID] = true
		if oldSet[ch.ID] {
			updated++
		} else {
			added++
		}
	}
	var removed []string
	for _, id := range oldIDs {
		if !newSet[id] {
			removed = append(removed, id)
		}
	}

	if err := idx.embedChunks(ctx, chunks); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		vectors[i] = ch.Embedding
	}
	if err := idx.vectorIndex.Upsert(ctx, ids, vectors); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if err := idx.lexicalIndex.IndexBatch(ctx, chunks); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if err := idx.storage.UpsertChunks(ctx, chunks); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}
	if len(removed) > 0 {
		if err := idx.lexicalIndex.Delete(ctx, removed); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			result.Success = false
			return
		}
		if err := idx.vectorIndex.Remove(ctx, removed); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			result.Success = false
			return
		}
		if err := idx.storage.DeleteChunks(ctx, removed); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			result.Success = false
			return
		}
	}
	// Manifest only after all store mutations succeeded, so a failed batch
	// leaves the old hash in place and a retry re-processes the file.
	if err := idx.storage.SetFileHash(ctx, path, newHash); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		result.Success = false
		return
	}

	result.FilesProcessed++
	result.ChunksAdded += added
	result.ChunksUpdated += updated
	result.ChunksRemoved += len(removed)
	if idx.logger != nil {
		idx.logger.Debug("indexer indexed path",
			zap.String("path", path),
			zap.Int("added", added),
			zap.Int("updated", updated),
			zap.Int("removed", len(removed)))
	}
}

func (idx *Indexer) readFile(path string) ([]byte, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, &models.FileReadError{Path: path, Err: err}
	}
	if idx.maxFileSize > 0 && info.Size() > idx.maxFileSize {
		return nil, time.Time{}, &models.FileReadError{Path: path, Err: fmt.Errorf("file size %d exceeds ceiling %d", info.Size(), idx.maxFileSize)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, &models.FileReadError{Path: path, Err: err}
	}
	return content, info.ModTime(), nil
}

// embedChunks fills in embeddings for all chunks in bounded parallel batches.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(chunks); start += idx.batchSize {
		end := start + idx.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, ch := range batch {
				texts[i] = ch.Content
			}
			embeddings, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return &models.EmbeddingProviderError{Err: err}
			}
			for i := range batch {
				batch[i].Embedding = embeddings[i]
			}
			return nil
		})
	}
	return g.Wait()
}
