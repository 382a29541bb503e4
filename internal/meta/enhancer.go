// Package meta derives per-file metadata signals attached to every chunk:
// language, complexity and importance scores, and boolean flags. Enhance is a
// pure function of path, content, and mtime, safe to call repeatedly.
package meta

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/siftd/sift/internal/models"
)

// ComplexityScorer produces a complexity score in [0,1] for file content.
// Pluggable so the keyword heuristic can be swapped without touching the
// indexing pipeline.
type ComplexityScorer interface {
	Complexity(language, content string) float64
}

// ImportanceScorer produces an importance score in [0,1] from file signals.
type ImportanceScorer interface {
	Importance(sig Signals) float64
}

// Signals are the raw per-file observations importance scoring works from.
type Signals struct {
	Language         string
	CommentRatio     float64
	HasTests         bool
	HasDocumentation bool
	IsGenerated      bool
	IsTyped          bool
	HandlesErrors    bool
	ModTime          time.Time
	Now              time.Time
}

// Enhancer computes ChunkMetadata for a file.
type Enhancer struct {
	complexity ComplexityScorer
	importance ImportanceScorer
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithComplexityScorer replaces the default control-flow keyword heuristic.
func WithComplexityScorer(s ComplexityScorer) Option {
	return func(e *Enhancer) { e.complexity = s }
}

// WithImportanceScorer replaces the default additive importance heuristic.
func WithImportanceScorer(s ImportanceScorer) Option {
	return func(e *Enhancer) { e.importance = s }
}

// NewEnhancer creates an enhancer with the default heuristic scorers.
func NewEnhancer(opts ...Option) *Enhancer {
	e := &Enhancer{
		complexity: keywordComplexity{},
		importance: additiveImportance{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance derives metadata for the file at path with the given content.
// modTime feeds the recency tiers of importance scoring; pass the zero time
// to skip them.
func (e *Enhancer) Enhance(path, content string, modTime time.Time) models.ChunkMetadata {
	lang := DetectLanguage(path, content)
	ratio := commentRatio(lang, content)
	sig := Signals{
		Language:         lang,
		CommentRatio:     ratio,
		HasTests:         hasTests(path, content),
		HasDocumentation: hasDocumentation(path, content),
		IsGenerated:      isGenerated(content),
		IsTyped:          typedLanguages[lang],
		HandlesErrors:    handlesErrors(content),
		ModTime:          modTime,
		Now:              time.Now(),
	}
	return models.ChunkMetadata{
		Language:         lang,
		ImportanceScore:  clamp01(e.importance.Importance(sig)),
		ComplexityScore:  clamp01(e.complexity.Complexity(lang, content)),
		CommentRatio:     ratio,
		HasTests:         sig.HasTests,
		HasDocumentation: sig.HasDocumentation,
		IsConfig:         isConfig(path),
		IsGenerated:      sig.IsGenerated,
	}
}

// keywordComplexity scores by control-flow keyword density per line.
type keywordComplexity struct{}

var controlFlowRe = regexp.MustCompile(`\b(if|else|elif|for|while|switch|case|match|catch|except|rescue|select|defer|goto|when)\b`)

// Nesting-heavy keywords count double.
var heavyControlRe = regexp.MustCompile(`\b(for|while|switch|match|select)\b`)

func (keywordComplexity) Complexity(language, content string) float64 {
	lines := strings.Count(content, "\n") + 1
	count := len(controlFlowRe.FindAllString(content, -1))
	count += len(heavyControlRe.FindAllString(content, -1))
	perLine := float64(count) / float64(lines)
	// 0.5 weighted keywords per line saturates the score.
	return perLine / 0.5
}

// additiveImportance starts at 0.5 and applies bounded additive adjustments.
type additiveImportance struct{}

func (additiveImportance) Importance(sig Signals) float64 {
	score := 0.5
	if sig.HasDocumentation {
		score += 0.1
	}
	if sig.HasTests {
		score += 0.1
	}
	if sig.IsTyped {
		score += 0.05
	}
	if sig.HandlesErrors {
		score += 0.05
	}
	if sig.IsGenerated {
		score -= 0.2
	}
	if !sig.ModTime.IsZero() {
		age := sig.Now.Sub(sig.ModTime)
		switch {
		case age <= 7*24*time.Hour:
			score += 0.1
		case age <= 30*24*time.Hour:
			score += 0.05
		}
	}
	if sig.CommentRatio >= 0.1 && sig.CommentRatio <= 0.3 {
		score += 0.05
	}
	return score
}

func commentRatio(language, content string) float64 {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return 0
	}
	comments := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") ||
			strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "\"\"\"") {
			comments++
		}
	}
	return float64(comments) / float64(len(lines))
}

var testContentRe = regexp.MustCompile(`func Test\w+|def test_\w+|describe\(|it\(|@Test\b|#\[test\]`)

func hasTests(path, content string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.Contains(base, "_test.") || strings.HasPrefix(base, "test_") ||
		strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	dir := strings.ToLower(filepath.ToSlash(filepath.Dir(path)))
	if strings.Contains(dir, "/tests") || strings.Contains(dir, "/test/") || strings.HasSuffix(dir, "/test") {
		return true
	}
	return testContentRe.MatchString(content)
}

var docCommentRe = regexp.MustCompile(`(?m)^\s*(///|/\*\*)|"""|'''`)

func hasDocumentation(path, content string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".md" || ext == ".rst" || ext == ".txt" {
		return true
	}
	return docCommentRe.MatchString(content)
}

var configNames = map[string]bool{
	"makefile": true, "dockerfile": true, ".gitignore": true,
	".env": true, ".editorconfig": true,
}

func isConfig(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if configNames[base] {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml", ".ini", ".cfg", ".conf", ".env":
		return true
	}
	return false
}

var generatedRe = regexp.MustCompile(`Code generated|DO NOT EDIT|@generated|autogenerated|auto-generated`)

func isGenerated(content string) bool {
	// Only the file header is checked; generated markers live near the top.
	head := content
	if len(head) > 2048 {
		head = head[:2048]
	}
	return generatedRe.MatchString(head)
}

var errorHandlingRe = regexp.MustCompile(`if err != nil|\btry\b|\bcatch\b|\bexcept\b|\brescue\b|\.catch\(`)

func handlesErrors(content string) bool {
	return errorHandlingRe.MatchString(content)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
