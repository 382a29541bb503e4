package models

import "fmt"

// SearchQuery represents a retrieval request. Zero values for the k/budget
// fields mean "use configured defaults".
type SearchQuery struct {
	Query        string `json:"query"`
	KVector      int    `json:"k_vector,omitempty"`
	KBM25        int    `json:"k_bm25,omitempty"`
	KFinal       int    `json:"k_final,omitempty"`
	MaxTokens    int    `json:"max_tokens,omitempty"`
	PreserveTopN int    `json:"preserve_top_n,omitempty"`
	// NoCache bypasses the result cache for this query.
	NoCache bool `json:"no_cache,omitempty"`
}

// Validate checks required fields and clamps pathological values.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.KVector < 0 || q.KBM25 < 0 || q.KFinal < 0 {
		return fmt.Errorf("k values cannot be negative")
	}
	if q.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative")
	}
	return nil
}
