package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/siftd/sift/internal/fileid"
	"github.com/siftd/sift/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func startWatcher(t *testing.T, root string, debounce time.Duration, opts ...Option) (*Watcher, chan []models.ChangeEvent) {
	t.Helper()
	batches := make(chan []models.ChangeEvent, 16)
	opts = append([]Option{WithDebounce(debounce)}, opts...)
	w := New([]string{root}, NewAdmission([]string{"go"}, 0, nil),
		func(events []models.ChangeEvent) { batches <- events }, opts...)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, batches
}

func waitBatch(t *testing.T, batches chan []models.ChangeEvent, timeout time.Duration) []models.ChangeEvent {
	t.Helper()
	select {
	case batch := <-batches:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	root := t.TempDir()
	_, batches := startWatcher(t, root, 300*time.Millisecond)

	path := filepath.Join(root, "main.go")
	writeFile(t, path, "package main\n")
	writeFile(t, path, "package main\n\nfunc main() {}\n")
	writeFile(t, path, "package main\n\nfunc main() { println() }\n")

	batch := waitBatch(t, batches, 5*time.Second)
	if len(batch) != 1 {
		t.Fatalf("got %d events, want 1 coalesced event", len(batch))
	}
	if batch[0].Path != path {
		t.Errorf("Path = %q, want %q", batch[0].Path, path)
	}
	if batch[0].Kind == models.ChangeDeleted {
		t.Errorf("Kind = %q, want a create or modify", batch[0].Kind)
	}

	select {
	case extra := <-batches:
		t.Errorf("unexpected second batch: %v", extra)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_DeleteBypassesDebounce(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.go")
	writeFile(t, path, "package gone\n")

	_, batches := startWatcher(t, root, time.Hour,
		WithKnownHashes(map[string]string{path: fileid.ContentHash([]byte("package gone\n"))}))

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// The debounce window is an hour; a prompt batch proves deletes skip it.
	batch := waitBatch(t, batches, 5*time.Second)
	if len(batch) != 1 {
		t.Fatalf("got %d events, want 1", len(batch))
	}
	if batch[0].Kind != models.ChangeDeleted || batch[0].Path != path {
		t.Errorf("got %+v, want delete of %s", batch[0], path)
	}
}

func TestWatcher_SuppressesUnchangedContent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "same.go")
	content := "package same\n"
	writeFile(t, path, content)

	_, batches := startWatcher(t, root, 200*time.Millisecond,
		WithKnownHashes(map[string]string{path: fileid.ContentHash([]byte(content))}))

	// Rewrite identical bytes; the content hash matches so nothing fires.
	writeFile(t, path, content)

	select {
	case batch := <-batches:
		t.Errorf("unexpected batch for unchanged content: %v", batch)
	case <-time.After(time.Second):
	}
}

func TestWatcher_IgnoresInadmissiblePaths(t *testing.T) {
	root := t.TempDir()
	_, batches := startWatcher(t, root, 200*time.Millisecond)

	writeFile(t, filepath.Join(root, "photo.png"), "not code")

	select {
	case batch := <-batches:
		t.Errorf("unexpected batch for rejected extension: %v", batch)
	case <-time.After(time.Second):
	}
}

func TestWatcher_ScanReconciles(t *testing.T) {
	root := t.TempDir()

	unchanged := filepath.Join(root, "unchanged.go")
	modified := filepath.Join(root, "modified.go")
	created := filepath.Join(root, "created.go")
	deleted := filepath.Join(root, "deleted.go")

	writeFile(t, unchanged, "package a\n")
	writeFile(t, modified, "package b // v2\n")
	writeFile(t, created, "package c\n")

	manifest := map[string]string{
		unchanged: fileid.ContentHash([]byte("package a\n")),
		modified:  fileid.ContentHash([]byte("package b\n")),
		deleted:   fileid.ContentHash([]byte("package d\n")),
	}

	w := New([]string{root}, NewAdmission([]string{"go"}, 0, nil), nil)
	events := w.Scan(manifest)

	byPath := make(map[string]models.ChangeKind, len(events))
	for _, ev := range events {
		byPath[ev.Path] = ev.Kind
	}
	if len(events) != 3 {
		t.Fatalf("got %d events %v, want 3", len(events), byPath)
	}
	if byPath[created] != models.ChangeCreated {
		t.Errorf("created.go: got %q, want %q", byPath[created], models.ChangeCreated)
	}
	if byPath[modified] != models.ChangeModified {
		t.Errorf("modified.go: got %q, want %q", byPath[modified], models.ChangeModified)
	}
	if byPath[deleted] != models.ChangeDeleted {
		t.Errorf("deleted.go: got %q, want %q", byPath[deleted], models.ChangeDeleted)
	}
	if _, ok := byPath[unchanged]; ok {
		t.Error("unchanged.go should not produce an event")
	}
}

func TestWatcher_ScanIgnoresManifestPathsOutsideRoots(t *testing.T) {
	root := t.TempDir()
	w := New([]string{root}, NewAdmission([]string{"go"}, 0, nil), nil)

	events := w.Scan(map[string]string{"/elsewhere/other.go": "abc"})
	if len(events) != 0 {
		t.Errorf("got %v, want no events for paths outside the roots", events)
	}
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	root := t.TempDir()
	w := New([]string{root}, NewAdmission(nil, 0, nil), nil)

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_DirectoriesCopy(t *testing.T) {
	root := t.TempDir()
	w := New([]string{root}, NewAdmission(nil, 0, nil), nil)

	dirs := w.Directories()
	if len(dirs) != 1 || dirs[0] != root {
		t.Fatalf("Directories = %v", dirs)
	}
	dirs[0] = "mutated"
	if w.Directories()[0] != root {
		t.Error("Directories should return a copy")
	}
}
