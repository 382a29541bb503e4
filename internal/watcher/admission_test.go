package watcher

import "testing"

func TestAdmission_Extensions(t *testing.T) {
	a := NewAdmission([]string{"go", ".md", "PY"}, 0, nil)

	tests := []struct {
		path string
		want bool
	}{
		{"main.go", true},
		{"README.md", true},
		{"script.py", true},
		{"SCRIPT.PY", true},
		{"image.png", false},
		{"binary", false},
	}
	for _, tt := range tests {
		if got := a.Admit(tt.path, 100); got != tt.want {
			t.Errorf("Admit(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAdmission_EmptyExtensionsAdmitAll(t *testing.T) {
	a := NewAdmission(nil, 0, nil)
	if !a.Admit("anything.xyz", 100) {
		t.Error("empty allow-list should admit every extension")
	}
}

func TestAdmission_SizeCeiling(t *testing.T) {
	a := NewAdmission([]string{"go"}, 1024, nil)

	if !a.Admit("small.go", 1024) {
		t.Error("file at the ceiling should be admitted")
	}
	if a.Admit("big.go", 1025) {
		t.Error("file over the ceiling should be rejected")
	}
	if !a.Admit("unknown.go", -1) {
		t.Error("negative size should skip the size check")
	}
}

func TestAdmission_IgnoreGlobs(t *testing.T) {
	a := NewAdmission(nil, 0, []string{"node_modules/", "*.min.js", ".git/"})

	if a.Admit("web/node_modules/react/index.js", 10) {
		t.Error("node_modules content should be rejected")
	}
	if a.Admit("dist/app.min.js", 10) {
		t.Error("*.min.js should be rejected")
	}
	if !a.Admit("src/app.js", 10) {
		t.Error("src/app.js should be admitted")
	}

	if a.AdmitDir("repo/.git") {
		t.Error(".git directory should not be descended into")
	}
	if !a.AdmitDir("repo/internal") {
		t.Error("ordinary directory should be descended into")
	}
}
