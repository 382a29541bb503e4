package meta

import (
	"path/filepath"
	"regexp"
	"strings"
)

// extLanguages maps file extensions to language names.
var extLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".kt":    "kotlin",
	".swift": "swift",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".md":    "markdown",
	".rst":   "markdown",
	".txt":   "text",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".ini":   "ini",
	".html":  "html",
	".css":   "css",
}

// codeLanguages are languages chunked declaration-first; everything else is
// treated as plain text.
var codeLanguages = map[string]bool{
	"go": true, "python": true, "javascript": true, "typescript": true,
	"java": true, "ruby": true, "rust": true, "c": true, "cpp": true,
	"csharp": true, "php": true, "kotlin": true, "swift": true,
	"scala": true, "shell": true, "sql": true,
}

// typedLanguages have static type systems (importance signal).
var typedLanguages = map[string]bool{
	"go": true, "typescript": true, "java": true, "rust": true,
	"c": true, "cpp": true, "csharp": true, "kotlin": true,
	"swift": true, "scala": true,
}

// Content-pattern fallbacks for files with unknown or missing extensions.
var contentPatterns = []struct {
	language string
	re       *regexp.Regexp
}{
	{"python", regexp.MustCompile(`(?m)^#!.*\bpython`)},
	{"shell", regexp.MustCompile(`(?m)^#!.*\b(sh|bash|zsh)\b`)},
	{"go", regexp.MustCompile(`(?m)^package \w+$`)},
	{"python", regexp.MustCompile(`(?m)^def \w+\(.*\):`)},
	{"javascript", regexp.MustCompile(`(?m)^(const|let)\s+\w+\s*=|module\.exports`)},
	{"ruby", regexp.MustCompile(`(?m)^(require ['"]|module \w+\s*$)`)},
}

// DetectLanguage identifies a file's language by extension first, then by
// content patterns. Returns "text" when nothing matches.
func DetectLanguage(path, content string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	for _, cp := range contentPatterns {
		if cp.re.MatchString(content) {
			return cp.language
		}
	}
	return "text"
}

// IsCodeLanguage reports whether lang gets declaration-aware chunking.
func IsCodeLanguage(lang string) bool {
	return codeLanguages[lang]
}
