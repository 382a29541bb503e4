package embedding

import (
	"context"

	"github.com/siftd/sift/internal/fileid"
)

// CachedEmbedder wraps an Embedder with an LRU cache keyed by content hash,
// so re-indexing unchanged chunks never re-embeds them.
type CachedEmbedder struct {
	inner Embedder
	cache *embeddingCache
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	if capacity <= 0 {
		capacity = 10000
	}
	return &CachedEmbedder{
		inner: inner,
		cache: newEmbeddingCache(capacity),
	}
}

// Embed returns the cached embedding for text or computes and caches it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := fileid.ContentHash([]byte(text))
	if emb, ok := e.cache.get(key); ok {
		return emb, nil
	}
	emb, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.set(key, emb)
	return emb, nil
}

// EmbedBatch embeds only the cache misses, preserving input order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		keys[i] = fileid.ContentHash([]byte(text))
		if emb, ok := e.cache.get(keys[i]); ok {
			out[i] = emb
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}
	if len(missTexts) > 0 {
		embs, err := e.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, emb := range embs {
			out[missIdx[j]] = emb
			e.cache.set(keys[missIdx[j]], emb)
		}
	}
	return out, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close closes the wrapped embedder.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}
