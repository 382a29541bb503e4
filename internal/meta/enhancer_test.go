package meta

import (
	"testing"
	"time"
)

const goSample = `package svc

// Service wires the handlers together.
type Service struct{}

// Run starts the loop.
func (s *Service) Run() error {
	for i := 0; i < 10; i++ {
		if err := s.step(i); err != nil {
			return err
		}
	}
	return nil
}
`

func TestEnhance_GoFile(t *testing.T) {
	e := NewEnhancer()
	md := e.Enhance("internal/svc/service.go", goSample, time.Time{})
	if md.Language != "go" {
		t.Errorf("language = %q, want go", md.Language)
	}
	if md.ImportanceScore < 0 || md.ImportanceScore > 1 {
		t.Errorf("importance %f out of [0,1]", md.ImportanceScore)
	}
	if md.ComplexityScore <= 0 || md.ComplexityScore > 1 {
		t.Errorf("complexity %f out of (0,1]", md.ComplexityScore)
	}
	if md.IsConfig || md.IsGenerated || md.HasTests {
		t.Errorf("unexpected flags: %+v", md)
	}
}

func TestEnhance_ScoresClamped(t *testing.T) {
	e := NewEnhancer()
	// Dense control flow saturates complexity at 1.
	dense := "if for while switch match\nif for while switch match\n"
	md := e.Enhance("dense.go", dense, time.Now())
	if md.ComplexityScore != 1 {
		t.Errorf("complexity = %f, want saturated 1", md.ComplexityScore)
	}
}

func TestEnhance_RecencyTiers(t *testing.T) {
	e := NewEnhancer()
	content := "package x\n\nvar y = 1\n"
	fresh := e.Enhance("a.go", content, time.Now().Add(-time.Hour))
	month := e.Enhance("a.go", content, time.Now().Add(-20*24*time.Hour))
	stale := e.Enhance("a.go", content, time.Now().Add(-90*24*time.Hour))
	if !(fresh.ImportanceScore > month.ImportanceScore) {
		t.Errorf("fresh %f should outrank month-old %f", fresh.ImportanceScore, month.ImportanceScore)
	}
	if !(month.ImportanceScore > stale.ImportanceScore) {
		t.Errorf("month-old %f should outrank stale %f", month.ImportanceScore, stale.ImportanceScore)
	}
}

func TestEnhance_GeneratedPenalty(t *testing.T) {
	e := NewEnhancer()
	plain := e.Enhance("a.go", "package x\n", time.Time{})
	generated := e.Enhance("a.pb.go", "// Code generated by protoc. DO NOT EDIT.\npackage x\n", time.Time{})
	if !generated.IsGenerated {
		t.Fatal("generated marker not detected")
	}
	if generated.ImportanceScore >= plain.ImportanceScore {
		t.Errorf("generated %f should score below plain %f", generated.ImportanceScore, plain.ImportanceScore)
	}
}

func TestEnhance_TestFileDetection(t *testing.T) {
	e := NewEnhancer()
	tests := []struct {
		path    string
		content string
		want    bool
	}{
		{"pkg/svc/service_test.go", "package svc\n", true},
		{"pkg/tests/fixtures.py", "x = 1\n", true},
		{"pkg/svc/service.go", "func TestRun(t *testing.T) {}\n", true},
		{"pkg/svc/service.go", "package svc\n", false},
	}
	for _, tt := range tests {
		md := e.Enhance(tt.path, tt.content, time.Time{})
		if md.HasTests != tt.want {
			t.Errorf("HasTests(%s) = %v, want %v", tt.path, md.HasTests, tt.want)
		}
	}
}

func TestEnhance_ConfigDetection(t *testing.T) {
	e := NewEnhancer()
	for _, path := range []string{"config.yaml", "settings.json", "Makefile", ".env"} {
		if md := e.Enhance(path, "", time.Time{}); !md.IsConfig {
			t.Errorf("IsConfig(%s) = false, want true", path)
		}
	}
	if md := e.Enhance("main.go", "package main\n", time.Time{}); md.IsConfig {
		t.Error("IsConfig(main.go) = true, want false")
	}
}

func TestEnhance_CommentRatioBand(t *testing.T) {
	e := NewEnhancer()
	// 2 comment lines out of 10 lands in the rewarded [0.1, 0.3] band.
	commented := `// top comment
// explains things
var a = 1
var b = 2
var c = 3
var d = 4
var e = 5
var f = 6
var g = 7
var h = 8`
	bare := `var a = 1
var b = 2
var c = 3
var d = 4
var e = 5
var f = 6
var g = 7
var h = 8
var i = 9
var j = 10`
	withBand := e.Enhance("a.go", commented, time.Time{})
	without := e.Enhance("b.go", bare, time.Time{})
	if withBand.CommentRatio <= without.CommentRatio {
		t.Fatalf("comment ratio %f vs %f", withBand.CommentRatio, without.CommentRatio)
	}
	if withBand.ImportanceScore <= without.ImportanceScore {
		t.Errorf("commented %f should outrank bare %f", withBand.ImportanceScore, without.ImportanceScore)
	}
}

type fixedScorer float64

func (f fixedScorer) Complexity(language, content string) float64 { return float64(f) }
func (f fixedScorer) Importance(sig Signals) float64              { return float64(f) }

func TestEnhance_PluggableScorers(t *testing.T) {
	e := NewEnhancer(WithComplexityScorer(fixedScorer(0.25)), WithImportanceScorer(fixedScorer(2)))
	md := e.Enhance("a.go", "package a\n", time.Time{})
	if md.ComplexityScore != 0.25 {
		t.Errorf("complexity = %f, want 0.25", md.ComplexityScore)
	}
	if md.ImportanceScore != 1 {
		t.Errorf("importance = %f, want clamped 1", md.ImportanceScore)
	}
}
