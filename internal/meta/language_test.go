package meta

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    string
	}{
		{"go by extension", "main.go", "", "go"},
		{"python by extension", "script.py", "", "python"},
		{"typescript jsx", "app.tsx", "", "typescript"},
		{"markdown", "README.md", "", "markdown"},
		{"yaml", "config.yml", "", "yaml"},
		{"uppercase extension", "Main.GO", "", "go"},
		{"python shebang", "run", "#!/usr/bin/env python3\nprint('hi')\n", "python"},
		{"shell shebang", "deploy", "#!/bin/bash\nset -e\n", "shell"},
		{"go package clause", "snippet", "package main\n\nfunc main() {}\n", "go"},
		{"unknown", "data.bin", "\x00\x01\x02", "text"},
		{"no extension no patterns", "LICENSE", "Copyright 2024\n", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.path, tt.content); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsCodeLanguage(t *testing.T) {
	for _, lang := range []string{"go", "python", "rust", "sql"} {
		if !IsCodeLanguage(lang) {
			t.Errorf("IsCodeLanguage(%s) = false, want true", lang)
		}
	}
	for _, lang := range []string{"markdown", "text", "yaml", "json", ""} {
		if IsCodeLanguage(lang) {
			t.Errorf("IsCodeLanguage(%s) = true, want false", lang)
		}
	}
}
