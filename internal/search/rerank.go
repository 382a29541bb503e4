package search

import (
	"sort"
	"strings"

	"github.com/siftd/sift/internal/models"
)

// Rerank is a secondary pure transform applied to a merged hit list. It must
// preserve the no-duplicate invariant and never add hits.
type Rerank interface {
	Rerank(query string, hits []*models.SearchHit) []*models.SearchHit
}

// TermOverlapRerank re-scores hits by direct query-term overlap with the
// chunk content, blended with the merged score. A lightweight stand-in for a
// cross-encoder relevance pass.
type TermOverlapRerank struct {
	// Blend is the weight of the overlap signal (0..1). 0.3 when unset.
	Blend float64
}

// Rerank blends term overlap into each score and re-sorts.
func (r TermOverlapRerank) Rerank(query string, hits []*models.SearchHit) []*models.SearchHit {
	blend := r.Blend
	if blend <= 0 {
		blend = 0.3
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return hits
	}
	out := append([]*models.SearchHit(nil), hits...)
	for _, hit := range out {
		content := strings.ToLower(hit.Chunk.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		overlap := float64(matched) / float64(len(terms))
		hit.Score = (1-blend)*hit.Score + blend*overlap
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// PathDiversityRerank penalizes repeated source paths so the top of the list
// covers more files. The first hit from each path keeps its score; each
// subsequent hit from the same path is multiplied by (1 - Penalty)^n.
type PathDiversityRerank struct {
	// Penalty per repeat in (0,1). 0.2 when unset.
	Penalty float64
}

// Rerank applies the path repetition penalty and re-sorts.
func (r PathDiversityRerank) Rerank(query string, hits []*models.SearchHit) []*models.SearchHit {
	penalty := r.Penalty
	if penalty <= 0 {
		penalty = 0.2
	}
	out := append([]*models.SearchHit(nil), hits...)
	seen := make(map[string]int, len(out))
	for _, hit := range out {
		repeats := seen[hit.Chunk.Path]
		seen[hit.Chunk.Path] = repeats + 1
		for i := 0; i < repeats; i++ {
			hit.Score *= 1 - penalty
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
