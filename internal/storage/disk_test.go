package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 100), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.bin"), make([]byte, 50), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	single := filepath.Join(t.TempDir(), "c.bin")
	if err := os.WriteFile(single, make([]byte, 7), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	total, err := DiskUsageBytes(dir, single, "", filepath.Join(dir, "absent"))
	if err != nil {
		t.Fatalf("DiskUsageBytes: %v", err)
	}
	if total != 157 {
		t.Errorf("total = %d, want 157", total)
	}
}
