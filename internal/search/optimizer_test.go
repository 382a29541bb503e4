package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/siftd/sift/internal/config"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/token"
)

func testOptimizerConfig() *config.OptimizerConfig {
	return &config.OptimizerConfig{
		MaxTokens:        4000,
		PreserveTopN:     3,
		RelevanceWeight:  0.7,
		ImportanceWeight: 0.3,
		MinUsefulTokens:  50,
	}
}

// tokenHit builds a hit whose content has exactly tokens tokens.
func tokenHit(path, ordinal string, score float64, tokens int, importance float64) *models.SearchHit {
	words := make([]string, tokens)
	for i := range words {
		words[i] = fmt.Sprintf("tok%s", strings.Repeat("n", i%2))
	}
	content := strings.Join(words, " ")
	return &models.SearchHit{
		Chunk: &models.Chunk{
			ID:       path + "#" + ordinal,
			Path:     path,
			Ordinal:  ordinal,
			Content:  content,
			Tokens:   tokens,
			Metadata: models.ChunkMetadata{ImportanceScore: importance},
		},
		Score: score,
	}
}

func totalTokens(hits []*models.SearchHit) int {
	total := 0
	for _, h := range hits {
		total += token.Count(h.Chunk.Content)
	}
	return total
}

func TestOptimize_BudgetInvariant(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	var hits []*models.SearchHit
	for i := 0; i < 20; i++ {
		hits = append(hits, tokenHit(fmt.Sprintf("f%d.go", i), "0", 1-float64(i)*0.04, 120, 0.5))
	}
	out := o.Optimize(hits, 500, 3)
	if got := totalTokens(out); got > 500 {
		t.Errorf("total tokens = %d, exceeds budget 500", got)
	}
	if len(out) == 0 {
		t.Fatal("expected at least the preserved hits")
	}
}

func TestOptimize_PreservesTopN(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 100, 0.1),
		tokenHit("b.go", "0", 0.8, 100, 0.1),
		tokenHit("c.go", "0", 0.7, 100, 0.9), // higher combined score than b
		tokenHit("d.go", "0", 0.6, 100, 0.1),
	}
	out := o.Optimize(hits, 250, 2)
	if len(out) < 2 {
		t.Fatalf("got %d hits, want at least the 2 preserved", len(out))
	}
	if out[0].Chunk.Path != "a.go" || out[1].Chunk.Path != "b.go" {
		t.Errorf("preserved hits = %s, %s; want a.go, b.go", out[0].Chunk.Path, out[1].Chunk.Path)
	}
	for _, h := range out[:2] {
		if h.Chunk.Metadata.Truncated {
			t.Errorf("preserved hit %s should be verbatim", h.Chunk.Path)
		}
	}
}

func TestOptimize_PreservedOverflowTruncates(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 300, 0.5),
		tokenHit("b.go", "0", 0.8, 300, 0.5),
	}
	out := o.Optimize(hits, 400, 2)
	if got := totalTokens(out); got > 400 {
		t.Errorf("total tokens = %d, exceeds budget 400", got)
	}
	if len(out) != 2 {
		t.Fatalf("got %d hits, want 2", len(out))
	}
	if out[0].Chunk.Metadata.Truncated {
		t.Error("first preserved hit fits and should not be truncated")
	}
	if !out[1].Chunk.Metadata.Truncated {
		t.Error("second preserved hit should be truncated to fit")
	}
	if !strings.HasSuffix(out[1].Chunk.Content, truncationMarker) {
		t.Errorf("truncated content should end with marker, got %q", out[1].Chunk.Content[len(out[1].Chunk.Content)-10:])
	}
	if out[1].Chunk.Metadata.TruncateNote == "" {
		t.Error("truncated chunk should carry a note")
	}
}

func TestOptimize_TruncationLeavesOriginalUntouched(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	original := tokenHit("a.go", "0", 0.9, 300, 0.5)
	originalContent := original.Chunk.Content
	out := o.Optimize([]*models.SearchHit{original}, 100, 1)
	if len(out) != 1 || !out[0].Chunk.Metadata.Truncated {
		t.Fatal("expected one truncated hit")
	}
	if original.Chunk.Content != originalContent || original.Chunk.Metadata.Truncated {
		t.Error("optimizer mutated the input hit")
	}
}

func TestOptimize_DiversityPassPrefersNewPaths(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 100, 0.5),
		tokenHit("a.go", "1", 0.8, 100, 0.9), // repeat path, higher combined score
		tokenHit("b.go", "0", 0.7, 100, 0.1), // new path, lower score
	}
	out := o.Optimize(hits, 200, 1)
	if len(out) != 2 {
		t.Fatalf("got %d hits, want 2", len(out))
	}
	if out[1].Chunk.Path != "b.go" {
		t.Errorf("diversity pass should pick the unrepresented path, got %s", out[1].Chunk.Path)
	}
}

func TestOptimize_RepeatPassFillsRemainingBudget(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 100, 0.5),
		tokenHit("a.go", "1", 0.8, 100, 0.5),
		tokenHit("b.go", "0", 0.7, 100, 0.5),
	}
	out := o.Optimize(hits, 300, 1)
	if len(out) != 3 {
		t.Fatalf("got %d hits, want all 3 within budget", len(out))
	}
}

func TestOptimize_SkipsUselessResidual(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 100, 0.5),
		tokenHit("b.go", "0", 0.8, 200, 0.5),
	}
	// 40 tokens of residual budget is under MinUsefulTokens (50), so the
	// second hit is skipped rather than truncated to uselessness.
	out := o.Optimize(hits, 140, 1)
	if len(out) != 1 {
		t.Fatalf("got %d hits, want 1", len(out))
	}
}

func TestOptimize_UsefulResidualTruncates(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 100, 0.5),
		tokenHit("b.go", "0", 0.8, 200, 0.5),
	}
	out := o.Optimize(hits, 180, 1)
	if len(out) != 2 {
		t.Fatalf("got %d hits, want 2", len(out))
	}
	if !out[1].Chunk.Metadata.Truncated {
		t.Error("overflow hit with useful residual should be truncated")
	}
	if got := totalTokens(out); got > 180 {
		t.Errorf("total tokens = %d, exceeds budget 180", got)
	}
}

func TestOptimize_OneTokenBudgetDropsHit(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	hits := []*models.SearchHit{tokenHit("a.go", "0", 0.9, 100, 0.5)}

	// One token cannot hold content plus the truncation marker.
	out := o.Optimize(hits, 1, 1)
	if got := totalTokens(out); got > 1 {
		t.Errorf("total tokens = %d, exceeds budget 1", got)
	}
	if len(out) != 0 {
		t.Errorf("got %d hits, want 0", len(out))
	}

	// Two tokens is the smallest budget a truncated hit fits in.
	out = o.Optimize(hits, 2, 1)
	if got := totalTokens(out); got > 2 {
		t.Errorf("total tokens = %d, exceeds budget 2", got)
	}
	if len(out) != 1 || !out[0].Chunk.Metadata.Truncated {
		t.Fatalf("got %+v, want one truncated hit", out)
	}
}

func TestOptimize_EmptyInput(t *testing.T) {
	o := NewOptimizer(testOptimizerConfig())
	if out := o.Optimize(nil, 100, 3); out != nil {
		t.Errorf("got %v, want nil", out)
	}
}

func TestOptimize_ZeroFallsBackToDefaults(t *testing.T) {
	cfg := testOptimizerConfig()
	cfg.MaxTokens = 150
	cfg.PreserveTopN = 1
	o := NewOptimizer(cfg)
	hits := []*models.SearchHit{
		tokenHit("a.go", "0", 0.9, 100, 0.5),
		tokenHit("b.go", "0", 0.8, 100, 0.5),
		tokenHit("c.go", "0", 0.7, 100, 0.5),
	}
	out := o.Optimize(hits, 0, 0)
	if got := totalTokens(out); got > 150 {
		t.Errorf("total tokens = %d, exceeds configured default budget 150", got)
	}
}
