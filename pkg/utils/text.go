// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate shortens s to at most maxLen runes, appending "..." when cut.
// Chunk previews may hold multibyte text, so the cut never splits a rune.
// A non-positive maxLen returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
