package watcher

import (
	"path/filepath"
	"strings"

	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Admission decides which paths are watched and hashed: an allow-list of
// extensions, a size ceiling, and gitignore-style ignore patterns.
// Inadmissible paths are never hashed or indexed.
type Admission struct {
	extensions map[string]bool
	maxSize    int64
	matcher    gitignore.Matcher
}

// NewAdmission builds an admission filter. Empty extensions admit all
// extensions; maxSizeBytes <= 0 disables the size ceiling.
func NewAdmission(extensions []string, maxSizeBytes int64, ignoreGlobs []string) *Admission {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[normalizeExt(ext)] = true
	}
	patterns := make([]gitignore.Pattern, 0, len(ignoreGlobs))
	for _, glob := range ignoreGlobs {
		patterns = append(patterns, gitignore.ParsePattern(glob, nil))
	}
	return &Admission{
		extensions: extSet,
		maxSize:    maxSizeBytes,
		matcher:    gitignore.NewMatcher(patterns),
	}
}

// Admit reports whether the file at path may be watched/indexed. size < 0
// skips the size check (caller does not know the size yet).
func (a *Admission) Admit(path string, size int64) bool {
	if len(a.extensions) > 0 && !a.extensions[normalizeExt(filepath.Ext(path))] {
		return false
	}
	if a.maxSize > 0 && size > a.maxSize {
		return false
	}
	return !a.matcher.Match(splitPath(path), false)
}

// AdmitDir reports whether a directory may be descended into.
func (a *Admission) AdmitDir(path string) bool {
	return !a.matcher.Match(splitPath(path), true)
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
}
