package search

import (
	"sort"

	"github.com/siftd/sift/internal/config"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/token"
)

// truncationMarker is appended to token-sliced content. A single rune, so it
// costs one token of budget.
const truncationMarker = " …"

// Optimizer fits a ranked hit list into a token budget with a preservation
// and diversity policy.
type Optimizer struct {
	config *config.OptimizerConfig
}

// NewOptimizer creates an optimizer with the given settings.
func NewOptimizer(cfg *config.OptimizerConfig) *Optimizer {
	return &Optimizer{config: cfg}
}

// Optimize returns a subset of hits whose total token count is at most
// maxTokens. The top preserveTopN hits are always included, verbatim when
// they fit; when even they overflow the budget, each is truncated in score
// order. The remaining budget is filled greedily by combined
// relevance/importance score, preferring unrepresented source paths first and
// allowing repeats in a second pass. Zero maxTokens/preserveTopN fall back to
// configured defaults.
func (o *Optimizer) Optimize(hits []*models.SearchHit, maxTokens, preserveTopN int) []*models.SearchHit {
	if len(hits) == 0 {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = o.config.MaxTokens
	}
	if preserveTopN <= 0 {
		preserveTopN = o.config.PreserveTopN
	}
	if preserveTopN > len(hits) {
		preserveTopN = len(hits)
	}

	preserved := hits[:preserveTopN]
	preservedTokens := 0
	for _, hit := range preserved {
		preservedTokens += tokenCount(hit)
	}
	if preservedTokens > maxTokens {
		return o.truncatePreserved(preserved, maxTokens)
	}

	out := append([]*models.SearchHit(nil), preserved...)
	budget := maxTokens - preservedTokens
	seenPaths := make(map[string]bool, len(out))
	for _, hit := range out {
		seenPaths[hit.Chunk.Path] = true
	}

	rest := append([]*models.SearchHit(nil), hits[preserveTopN:]...)
	sort.SliceStable(rest, func(i, j int) bool {
		return o.combinedScore(rest[i]) > o.combinedScore(rest[j])
	})

	taken := make(map[*models.SearchHit]bool, len(rest))
	// Pass 1: only hits from paths not yet represented.
	budget = o.fill(rest, &out, budget, taken, func(hit *models.SearchHit) bool {
		return !seenPaths[hit.Chunk.Path]
	}, seenPaths)
	// Pass 2: allow repeats while budget remains.
	o.fill(rest, &out, budget, taken, func(*models.SearchHit) bool { return true }, seenPaths)
	return out
}

// fill greedily appends qualifying hits to out within budget, truncating a
// hit that would overflow when the residual stays useful, and returns the
// remaining budget.
func (o *Optimizer) fill(rest []*models.SearchHit, out *[]*models.SearchHit, budget int, taken map[*models.SearchHit]bool, qualify func(*models.SearchHit) bool, seenPaths map[string]bool) int {
	for _, hit := range rest {
		if budget <= 0 {
			break
		}
		if taken[hit] || !qualify(hit) {
			continue
		}
		need := tokenCount(hit)
		switch {
		case need <= budget:
			*out = append(*out, hit)
			budget -= need
		case budget >= 2 && budget >= o.config.MinUsefulTokens:
			*out = append(*out, truncateHit(hit, budget))
			budget = 0
		default:
			continue
		}
		taken[hit] = true
		seenPaths[hit.Chunk.Path] = true
	}
	return budget
}

// truncatePreserved slices each preserved hit to fit the budget, highest
// score first. Hits past an exhausted budget are dropped.
func (o *Optimizer) truncatePreserved(preserved []*models.SearchHit, budget int) []*models.SearchHit {
	var out []*models.SearchHit
	for _, hit := range preserved {
		if budget <= 0 {
			break
		}
		need := tokenCount(hit)
		if need <= budget {
			out = append(out, hit)
			budget -= need
			continue
		}
		// A 1-token budget cannot hold content plus the marker; drop the hit
		// rather than overrun.
		if budget < 2 {
			break
		}
		out = append(out, truncateHit(hit, budget))
		budget = 0
	}
	return out
}

func (o *Optimizer) combinedScore(hit *models.SearchHit) float64 {
	return o.config.RelevanceWeight*hit.Score + o.config.ImportanceWeight*hit.Chunk.Metadata.ImportanceScore
}

// truncateHit returns a copy of hit sliced to budget tokens, marker included
// in the budget. Callers must pass budget >= 2 so at least one content token
// survives next to the marker. The original chunk is left untouched.
func truncateHit(hit *models.SearchHit, budget int) *models.SearchHit {
	keep := budget - 1 // one token for the marker
	content, cut := token.Truncate(hit.Chunk.Content, keep, truncationMarker)
	chunk := *hit.Chunk
	chunk.Content = content
	chunk.Tokens = token.Count(content)
	if cut {
		chunk.Metadata.Truncated = true
		chunk.Metadata.TruncateNote = "content token-sliced to fit context budget"
	}
	copied := *hit
	copied.Chunk = &chunk
	return &copied
}

func tokenCount(hit *models.SearchHit) int {
	if hit.Chunk.Tokens > 0 {
		return hit.Chunk.Tokens
	}
	return token.Count(hit.Chunk.Content)
}
