// Package lexical provides the Bleve implementation of Index.
package lexical

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/siftd/sift/internal/models"
)

// chunkDoc is the shape indexed into Bleve. Only searchable fields are kept;
// full chunk data lives in storage.
type chunkDoc struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused so unchanged files need no re-indexing. An in-memory index is used
// when path is empty (tests).
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): identifiers like
	// "debounce" must match exactly, not via stems.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("path", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("language", keywordFieldMapping)
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes one chunk by ID. Re-indexing an ID replaces the old entry.
func (b *BleveIndex) Index(ctx context.Context, chunk *models.Chunk) error {
	return b.index.Index(chunk.ID, toDoc(chunk))
}

// IndexBatch indexes chunks in one Bleve batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, chunks []*models.Chunk) error {
	batch := b.index.NewBatch()
	for _, ch := range chunks {
		if err := batch.Index(ch.ID, toDoc(ch)); err != nil {
			return fmt.Errorf("failed to batch chunk %s: %w", ch.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// Search runs a match query over content and path and returns up to k raw
// BM25-scored hits.
func (b *BleveIndex) Search(ctx context.Context, query string, k int) ([]*Result, error) {
	q := bleve.NewMatchQuery(query)
	search := bleve.NewSearchRequest(q)
	search.Size = k
	results, err := b.index.SearchInContext(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes chunks by ID. Deleting absent IDs is not an error.
func (b *BleveIndex) Delete(ctx context.Context, ids []string) error {
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func toDoc(chunk *models.Chunk) *chunkDoc {
	return &chunkDoc{
		// Underscores read as word separators for identifier matching.
		Content:  strings.ReplaceAll(chunk.Content, "_", " "),
		Path:     strings.ReplaceAll(chunk.Path, "_", " "),
		Language: chunk.Metadata.Language,
	}
}

// Rebuild re-indexes a corpus snapshot, replacing any stale entries. Called
// at startup when the Bleve index was opened empty but storage has chunks.
func Rebuild(ctx context.Context, idx Index, chunks []*models.Chunk) error {
	const batchSize = 256
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := idx.IndexBatch(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("rebuild batch: %w", err)
		}
	}
	return nil
}
