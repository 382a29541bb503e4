// Package token provides a fixed deterministic subword tokenizer used for all
// token counting, windowing, and budget math. Identical input always yields
// identical tokens, which is what makes chunk IDs stable across runs.
package token

import "unicode"

// maxPieceRunes caps a single subword piece; longer runs are split greedily.
const maxPieceRunes = 8

// Token is one subword unit with its byte offsets in the original text, so a
// span of tokens can be sliced back out of the source without reformatting.
type Token struct {
	Text  string
	Start int
	End   int
}

// Split tokenizes text into subword tokens. Words are split on whitespace,
// then on case transitions, letter/digit boundaries, and punctuation; pieces
// longer than maxPieceRunes are split into fixed-size runs.
func Split(text string) []Token {
	var tokens []Token
	wordStart := -1
	flush := func(end int) {
		if wordStart < 0 {
			return
		}
		tokens = append(tokens, splitWord(text, wordStart, end)...)
		wordStart = -1
	}
	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if wordStart < 0 {
			wordStart = i
		}
	}
	flush(len(text))
	return tokens
}

// splitWord splits text[start:end] into subword pieces.
func splitWord(text string, start, end int) []Token {
	var pieces []Token
	word := text[start:end]
	runes := []rune(word)
	offsets := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		offsets[i] = pos
		pos += len(string(r))
	}
	offsets[len(runes)] = pos

	pieceStart := 0
	emit := func(endIdx int) {
		if endIdx <= pieceStart {
			return
		}
		// Break oversized pieces into fixed runs.
		for s := pieceStart; s < endIdx; s += maxPieceRunes {
			e := s + maxPieceRunes
			if e > endIdx {
				e = endIdx
			}
			pieces = append(pieces, Token{
				Text:  string(runes[s:e]),
				Start: start + offsets[s],
				End:   start + offsets[e],
			})
		}
		pieceStart = endIdx
	}
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		switch {
		case boundaryRune(cur) || boundaryRune(prev):
			emit(i)
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			emit(i)
		case unicode.IsLetter(prev) != unicode.IsLetter(cur):
			emit(i)
		}
	}
	emit(len(runes))
	return pieces
}

func boundaryRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Count returns the number of subword tokens in text.
func Count(text string) int {
	return len(Split(text))
}

// SliceTokens returns the substring of text covering tokens [from, to).
// Bounds are clamped; an empty range returns "".
func SliceTokens(text string, tokens []Token, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(tokens) {
		to = len(tokens)
	}
	if from >= to {
		return ""
	}
	return text[tokens[from].Start:tokens[to-1].End]
}

// Truncate returns text cut to at most n tokens, with marker appended when a
// cut happened. Used by the context optimizer for budget fitting.
func Truncate(text string, n int, marker string) (string, bool) {
	tokens := Split(text)
	if len(tokens) <= n {
		return text, false
	}
	if n <= 0 {
		return marker, true
	}
	return text[:tokens[n-1].End] + marker, true
}
