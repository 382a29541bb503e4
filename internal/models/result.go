package models

// SearchHit pairs a chunk with its merged relevance score. Hits are ephemeral:
// produced per query by the retrieval engine, consumed by the optimizer.
type SearchHit struct {
	Chunk        *Chunk  `json:"chunk"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Hits      []*SearchHit `json:"hits"`
	Total     int          `json:"total"`
	Tokens    int          `json:"tokens"`
	QueryTime int64        `json:"query_time_ms"`
	Query     string       `json:"query"`
	Cached    bool         `json:"cached,omitempty"`
}
