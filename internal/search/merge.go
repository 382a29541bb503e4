// Package search provides hybrid retrieval (vector + lexical), score merging,
// reranking, and token-budget context assembly.
package search

import (
	"sort"

	"github.com/siftd/sift/internal/lexical"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/vector"
)

// poolEntry is one signal's contribution to the merge pool. A chunk found by
// both searches appears twice, once per signal.
type poolEntry struct {
	id      string
	score   float64 // weighted normalized score for this signal
	vector  float64 // normalized vector score (0 for lexical entries)
	lexical float64 // normalized lexical score (0 for vector entries)
}

// NormalizeVectorScores normalizes vector scores by the list's own maximum.
// A list whose maximum is 0 is divided by 1 instead.
func NormalizeVectorScores(results []*vector.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	maxScore := 0.0
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}
	for _, r := range results {
		normalized[r.ID] = r.Score / maxScore
	}
	return normalized
}

// NormalizeLexicalScores normalizes raw BM25 scores by the list's maximum,
// with the same zero-max guard.
func NormalizeLexicalScores(results []*lexical.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	maxScore := 0.0
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}
	for _, r := range results {
		normalized[r.ID] = r.Score / maxScore
	}
	return normalized
}

// MergedScore is a chunk's combined score after pooling both signals.
type MergedScore struct {
	ID      string
	Score   float64
	Vector  float64
	Lexical float64
}

// Merge pools both normalized score sets with the given weights and returns
// combined scores sorted descending. A chunk appearing in both lists
// contributes two additive terms (weight*vector + weight*lexical), which
// deliberately reinforces consensus hits.
func Merge(vectorScores, lexicalScores map[string]float64, vectorWeight, lexicalWeight float64) []*MergedScore {
	pool := make([]poolEntry, 0, len(vectorScores)+len(lexicalScores))
	for id, score := range vectorScores {
		pool = append(pool, poolEntry{id: id, score: vectorWeight * score, vector: score})
	}
	for id, score := range lexicalScores {
		pool = append(pool, poolEntry{id: id, score: lexicalWeight * score, lexical: score})
	}
	byID := make(map[string]*MergedScore, len(pool))
	merged := make([]*MergedScore, 0, len(pool))
	for _, entry := range pool {
		if m, ok := byID[entry.id]; ok {
			m.Score += entry.score
			m.Vector += entry.vector
			m.Lexical += entry.lexical
			continue
		}
		m := &MergedScore{ID: entry.id, Score: entry.score, Vector: entry.vector, Lexical: entry.lexical}
		byID[entry.id] = m
		merged = append(merged, m)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// Dedupe removes hits sharing a (path, ordinal) key, keeping the first
// (highest-scoring) occurrence, and truncates to kFinal (no limit when <= 0).
func Dedupe(hits []*models.SearchHit, kFinal int) []*models.SearchHit {
	seen := make(map[string]bool, len(hits))
	out := make([]*models.SearchHit, 0, len(hits))
	for _, hit := range hits {
		key := hit.Chunk.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, hit)
		if kFinal > 0 && len(out) >= kFinal {
			break
		}
	}
	return out
}
