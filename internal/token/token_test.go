package token

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \t\n ", nil},
		{"single word", "hello", []string{"hello"}},
		{"two words", "hello world", []string{"hello", "world"}},
		{"camel case", "parseRequest", []string{"parse", "Request"}},
		{"letter digit boundary", "utf8string", []string{"utf", "8", "string"}},
		{"snake case", "max_file_size", []string{"max", "_", "file", "_", "size"}},
		{"punctuation owns tokens", "a.b", []string{"a", ".", "b"}},
		{"call expression", "foo(bar)", []string{"foo", "(", "bar", ")"}},
		{"long run split", "abcdefghijklmnop", []string{"abcdefgh", "ijklmnop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Split(tt.input)
			var got []string
			for _, tok := range tokens {
				got = append(got, tok.Text)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	input := "func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {"
	first := Split(input)
	for i := 0; i < 10; i++ {
		again := Split(input)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different tokens", i)
		}
	}
}

func TestSplit_OffsetsSliceOriginal(t *testing.T) {
	input := "parseRequest(ctx, maxRetries)"
	for _, tok := range Split(input) {
		if got := input[tok.Start:tok.End]; got != tok.Text {
			t.Errorf("offsets [%d:%d] give %q, token says %q", tok.Start, tok.End, got, tok.Text)
		}
	}
}

func TestSplit_MultibyteOffsets(t *testing.T) {
	input := "héllo wörld"
	for _, tok := range Split(input) {
		if got := input[tok.Start:tok.End]; got != tok.Text {
			t.Errorf("offsets [%d:%d] give %q, token says %q", tok.Start, tok.End, got, tok.Text)
		}
	}
}

func TestCount(t *testing.T) {
	if got := Count("hello world"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	if got := Count(""); got != 0 {
		t.Errorf("Count empty = %d, want 0", got)
	}
}

func TestSliceTokens(t *testing.T) {
	text := "alpha beta gamma delta"
	tokens := Split(text)
	if got := SliceTokens(text, tokens, 1, 3); got != "beta gamma" {
		t.Errorf("SliceTokens(1,3) = %q, want %q", got, "beta gamma")
	}
	if got := SliceTokens(text, tokens, 0, len(tokens)); got != text {
		t.Errorf("full slice = %q, want %q", got, text)
	}
	if got := SliceTokens(text, tokens, -5, 100); got != text {
		t.Errorf("clamped slice = %q, want %q", got, text)
	}
	if got := SliceTokens(text, tokens, 2, 2); got != "" {
		t.Errorf("empty range = %q, want empty", got)
	}
}

func TestTruncate(t *testing.T) {
	text := "alpha beta gamma delta"
	got, cut := Truncate(text, 2, " …")
	if !cut {
		t.Fatal("expected truncation")
	}
	if got != "alpha beta …" {
		t.Errorf("got %q", got)
	}

	got, cut = Truncate(text, 100, " …")
	if cut || got != text {
		t.Errorf("under-limit text should be unchanged, got %q cut=%v", got, cut)
	}

	got, cut = Truncate(text, 0, " …")
	if !cut || got != " …" {
		t.Errorf("zero budget should return only the marker, got %q", got)
	}
}

func TestTruncate_BudgetCountsMarker(t *testing.T) {
	text := strings.Repeat("word ", 100)
	got, cut := Truncate(text, 9, " …")
	if !cut {
		t.Fatal("expected truncation")
	}
	// 9 content tokens plus the one-token marker.
	if n := Count(got); n != 10 {
		t.Errorf("truncated token count = %d, want 10", n)
	}
}
