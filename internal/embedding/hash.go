package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/pkg/utils"
)

// HashEmbedder is a deterministic local embedder: each text maps to a fixed
// unit vector derived from hashed word features. The same text always gets
// the same embedding, and texts sharing vocabulary land near each other,
// which is enough for offline operation and for tests.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing deterministic embeddings of
// the given dimensions (384 when non-positive).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding built from word-hash features.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.EmbeddingProviderError{Err: err}
	}
	emb := make([]float32, e.dimensions)
	words := strings.Fields(strings.ToLower(text))
	for _, word := range words {
		h := hashString(word)
		idx := h % e.dimensions
		emb[idx] += float32(math.Sin(float64(h)))*0.5 + 0.5
	}
	if len(words) == 0 {
		// Empty text still gets a valid unit vector.
		emb[0] = 1
		return emb, nil
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	// Masking clears the sign bit; plain negation leaves math.MinInt negative.
	return h & math.MaxInt
}
