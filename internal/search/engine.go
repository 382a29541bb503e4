package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/siftd/sift/internal/config"
	"github.com/siftd/sift/internal/embedding"
	"github.com/siftd/sift/internal/lexical"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/storage"
	"github.com/siftd/sift/internal/vector"
)

// Engine runs hybrid (vector + lexical) retrieval over the chunk store.
type Engine struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.Index
	lexicalIndex lexical.Index
	config       *config.HybridConfig
	reranks      []Rerank
	logger       *zap.Logger // optional; when set, logs debug events
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithReranks appends secondary rerank passes applied after merge, in order.
func WithReranks(reranks ...Rerank) EngineOption {
	return func(e *Engine) { e.reranks = append(e.reranks, reranks...) }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	storage storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.Index,
	lexicalIndex lexical.Index,
	cfg *config.HybridConfig,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		storage:      storage,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		lexicalIndex: lexicalIndex,
		config:       cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs both searches concurrently, normalizes and merges scores,
// deduplicates by (path, ordinal), and truncates to kFinal. Fields left zero
// on query fall back to configured defaults.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	kVector := query.KVector
	if kVector == 0 {
		kVector = e.config.KVector
	}
	kBM25 := query.KBM25
	if kBM25 == 0 {
		kBM25 = e.config.KBM25
	}
	kFinal := query.KFinal
	if kFinal == 0 {
		kFinal = e.config.KFinal
	}

	var (
		vectorResults  []*vector.Result
		lexicalResults []*lexical.Result
		errChan        = make(chan error, 2)
		wg             sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		queryEmbedding, err := e.embedder.Embed(ctx, query.Query)
		if err != nil {
			errChan <- fmt.Errorf("embedding failed: %w", err)
			return
		}
		results, err := e.vectorIndex.Search(ctx, queryEmbedding, kVector)
		if err != nil {
			errChan <- fmt.Errorf("vector search failed: %w", err)
			return
		}
		vectorResults = results
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		results, err := e.lexicalIndex.Search(ctx, query.Query, kBM25)
		if err != nil {
			errChan <- fmt.Errorf("lexical search failed: %w", err)
			return
		}
		lexicalResults = results
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	vectorScores := NormalizeVectorScores(vectorResults)
	lexicalScores := NormalizeLexicalScores(lexicalResults)
	merged := Merge(vectorScores, lexicalScores, e.config.VectorWeight, e.config.BM25Weight)

	hits := make([]*models.SearchHit, 0, len(merged))
	for _, m := range merged {
		chunk, err := e.storage.GetChunk(ctx, m.ID)
		if err != nil {
			// A chunk deleted between index lookup and storage read is skipped.
			if e.logger != nil {
				e.logger.Debug("merged hit without stored chunk", zap.String("id", m.ID))
			}
			continue
		}
		hits = append(hits, &models.SearchHit{
			Chunk:        chunk,
			Score:        m.Score,
			VectorScore:  m.Vector,
			LexicalScore: m.Lexical,
		})
	}
	hits = Dedupe(hits, kFinal)
	for _, rerank := range e.reranks {
		hits = rerank.Rerank(query.Query, hits)
	}

	tokens := 0
	for _, hit := range hits {
		tokens += hit.Chunk.Tokens
	}
	return &models.SearchResponse{
		Hits:      hits,
		Total:     len(hits),
		Tokens:    tokens,
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query.Query,
	}, nil
}

// VectorIndexSize exposes the vector index size for the status endpoint.
func (e *Engine) VectorIndexSize() int {
	return e.vectorIndex.Size()
}
