// Package watcher provides OS-level change detection with content-hash
// suppression and batch debouncing. Events for dirty paths are buffered
// last-write-wins and flushed as one batch when the debounce timer fires;
// deletions bypass the buffer and fire immediately.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/siftd/sift/internal/fileid"
	"github.com/siftd/sift/internal/models"
)

const defaultDebounce = 5 * time.Second

// BatchFunc receives a flushed batch of change events.
type BatchFunc func(events []models.ChangeEvent)

// Watcher watches directories and emits debounced change-event batches.
type Watcher struct {
	roots     []string
	admission *Admission
	onBatch   BatchFunc
	debounce  time.Duration

	watcher   *fsnotify.Watcher
	mu        sync.Mutex
	buffer    map[string]models.ChangeEvent // dirty paths, last write wins
	timer     *time.Timer
	hashes    map[string]string // path -> last known content hash
	rootPaths map[string][]string
	done      chan struct{}
	started   bool
	stopOnce  sync.Once
	logger    *zap.Logger // optional; when set, logs debug events
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithKnownHashes seeds the hash table from a persisted manifest, so files
// unchanged since the last run do not produce events.
func WithKnownHashes(manifest map[string]string) Option {
	return func(w *Watcher) {
		for path, hash := range manifest {
			w.hashes[path] = hash
		}
	}
}

// New creates a watcher for roots. admission filters which files are watched
// and hashed; onBatch receives flushed event batches.
func New(roots []string, admission *Admission, onBatch BatchFunc, opts ...Option) *Watcher {
	w := &Watcher{
		roots:     roots,
		admission: admission,
		onBatch:   onBatch,
		debounce:  defaultDebounce,
		buffer:    make(map[string]models.ChangeEvent),
		hashes:    make(map[string]string),
		rootPaths: make(map[string][]string),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start transitions Stopped -> Running and begins delivering batches. It is a
// no-op when already running.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting", zap.Strings("roots", w.roots))
	}
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		kind := models.ChangeModified
		if ev.Op.Has(fsnotify.Create) {
			kind = models.ChangeCreated
		}
		w.observe(path, kind)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		// A rename delivers the old path; the new path arrives as Create.
		if !w.admission.Admit(path, -1) {
			return
		}
		w.fireDelete(path)
	}
}

// observe hashes an admissible file and buffers an event when the content
// actually changed. Save-without-change writes are suppressed here.
func (w *Watcher) observe(path string, kind models.ChangeKind) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if !w.admission.Admit(path, info.Size()) {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	hash := fileid.ContentHash(content)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hashes[path] == hash {
		if w.logger != nil {
			w.logger.Debug("watcher suppressing unchanged file", zap.String("path", path))
		}
		return
	}
	w.hashes[path] = hash
	w.buffer[path] = models.ChangeEvent{Kind: kind, Path: path, Timestamp: time.Now()}
	w.resetTimerLocked()
}

// fireDelete clears the buffered state for path and delivers the deletion
// immediately, without debounce. The buffered modify (if any) is dropped, so
// a delete always logically happens-after earlier events for the path.
func (w *Watcher) fireDelete(path string) {
	w.mu.Lock()
	delete(w.buffer, path)
	delete(w.hashes, path)
	onBatch := w.onBatch
	w.mu.Unlock()
	if onBatch != nil {
		onBatch([]models.ChangeEvent{{Kind: models.ChangeDeleted, Path: path, Timestamp: time.Now()}})
	}
}

// resetTimerLocked (re)starts the debounce timer; when it fires, the whole
// buffer is flushed as one batch.
func (w *Watcher) resetTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return
	}
	events := make([]models.ChangeEvent, 0, len(w.buffer))
	for _, ev := range w.buffer {
		events = append(events, ev)
	}
	w.buffer = make(map[string]models.ChangeEvent)
	onBatch := w.onBatch
	logger := w.logger
	w.mu.Unlock()
	if logger != nil {
		logger.Debug("watcher flushing batch", zap.Int("events", len(events)))
	}
	if onBatch != nil {
		onBatch(events)
	}
}

func (w *Watcher) handleNewDirectory(dirPath string) {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}
	filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.admission.AdmitDir(path) {
				_ = watcher.Add(path)
			} else {
				return filepath.SkipDir
			}
			return nil
		}
		w.observe(path, models.ChangeCreated)
		return nil
	})
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		return err
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !w.admission.AdmitDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}
	w.rootPaths[root] = paths
	return nil
}

// Scan walks the watched roots and compares content hashes against manifest,
// returning the change events needed to reconcile the index: Created for new
// files, Modified for changed ones, Deleted for manifest paths that no longer
// exist on disk. Used at startup before the event loop takes over.
func (w *Watcher) Scan(manifest map[string]string) []models.ChangeEvent {
	var events []models.ChangeEvent
	seen := make(map[string]bool, len(manifest))
	now := time.Now()
	for _, root := range w.roots {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && !w.admission.AdmitDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil || !w.admission.Admit(path, info.Size()) {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			hash := fileid.ContentHash(content)
			seen[path] = true
			prev, known := manifest[path]
			switch {
			case !known:
				events = append(events, models.ChangeEvent{Kind: models.ChangeCreated, Path: path, Timestamp: now})
			case prev != hash:
				events = append(events, models.ChangeEvent{Kind: models.ChangeModified, Path: path, Timestamp: now})
			}
			w.mu.Lock()
			w.hashes[path] = hash
			w.mu.Unlock()
			return nil
		})
	}
	for path := range manifest {
		if !seen[path] && w.underRoot(path) {
			events = append(events, models.ChangeEvent{Kind: models.ChangeDeleted, Path: path, Timestamp: now})
		}
	}
	return events
}

func (w *Watcher) underRoot(path string) bool {
	clean := filepath.Clean(path)
	for _, root := range w.roots {
		rel, err := filepath.Rel(filepath.Clean(root), clean)
		if err == nil && rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel) {
			return true
		}
	}
	return false
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}

// Directories returns a copy of the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop transitions Running -> Stopped, flushing nothing: buffered events are
// discarded with the debounce timer.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.buffer = make(map[string]models.ChangeEvent)
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
