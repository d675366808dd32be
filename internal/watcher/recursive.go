package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/siloindex/siloindex/internal/ignore"
)

// KeyFunc derives a per-silo stored key from a path relative to the
// watched root (store.FormatStoredKey, bound to the silo's root index).
type KeyFunc func(relPath string) string

// RecursiveWatcher watches one silo root directory tree with fsnotify,
// which has no native recursive mode, so every subdirectory is registered
// individually (the same technique the teacher's hybrid watcher used for
// its fsnotify backend, without the polling fallback or gitignore layer
// spec §4.F has no equivalent of). Events are filtered by folder/file
// ignore matchers and an extension whitelist, debounced per path, and
// deduplicated by stored key into a Queue that only drains on request.
type RecursiveWatcher struct {
	root       string
	dirIgnore  *ignore.Matcher
	fileIgnore *ignore.Matcher
	extensions *ignore.Extensions
	keyFn      KeyFunc

	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	queue     *Queue

	mu       sync.Mutex
	onQueued func()

	stopOnce sync.Once
	stopCh   chan struct{}
	errCh    chan error
}

// NewRecursiveWatcher builds a RecursiveWatcher rooted at root. keyFn
// converts event-relative paths to stored keys; pass nil to key by
// relative path directly (useful in tests).
func NewRecursiveWatcher(root string, opts Options, dirIgnore, fileIgnore *ignore.Matcher, extensions *ignore.Extensions, keyFn KeyFunc) (*RecursiveWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}
	opts = opts.WithDefaults()
	return &RecursiveWatcher{
		root:       root,
		dirIgnore:  dirIgnore,
		fileIgnore: fileIgnore,
		extensions: extensions,
		keyFn:      keyFn,
		fsw:        fsw,
		debouncer:  NewDebouncer(opts.DebounceWindow),
		queue:      NewQueue(),
		stopCh:     make(chan struct{}),
		errCh:      make(chan error, opts.EventBufferSize),
	}, nil
}

// OnQueued registers the callback fired whenever the queue transitions
// from empty to non-empty — the "request a scheduling slot" signal of
// spec §4.F's draining protocol. Must be set before Start.
func (w *RecursiveWatcher) OnQueued(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onQueued = fn
}

// Start registers every subdirectory under root and begins watching.
func (w *RecursiveWatcher) Start(ctx context.Context, _ string) error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watcher: register %s: %w", w.root, err)
	}
	go w.run(ctx)
	go w.forward(ctx)
	return nil
}

func (w *RecursiveWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr == nil && rel != "." && w.dirIgnore != nil && w.dirIgnore.Match(filepath.Base(path)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *RecursiveWatcher) run(ctx context.Context) {
	defer close(w.errCh) // run is the only sender on errCh
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errCh <- err:
			default:
			}
		}
	}
}

func (w *RecursiveWatcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}

	isDir := false
	if ev.Op&fsnotify.Remove == 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil {
			isDir = info.IsDir()
		}
	}

	base := filepath.Base(ev.Name)
	if isDir {
		if w.dirIgnore != nil && w.dirIgnore.Match(base) {
			return
		}
	} else {
		if w.fileIgnore != nil && w.fileIgnore.Match(base) {
			return
		}
		if w.extensions != nil && !w.extensions.Allowed(filepath.Ext(base)) {
			return
		}
	}

	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			_ = w.fsw.Add(ev.Name)
		}
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&fsnotify.Remove != 0:
		op = OpDelete
	case ev.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

func (w *RecursiveWatcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if evt.IsDir {
				continue
			}
			qop := QueueUpsert
			if evt.Operation == OpDelete {
				qop = QueueDelete
			}
			key := evt.Path
			if w.keyFn != nil {
				key = w.keyFn(evt.Path)
			}
			wasEmpty := w.queue.Enqueue(QueueItem{Key: key, Path: evt.Path, Operation: qop, EnqueuedAt: time.Now()})
			w.mu.Lock()
			cb := w.onQueued
			w.mu.Unlock()
			if wasEmpty && cb != nil {
				cb()
			}
		}
	}
}

// Drain removes and returns every pending queue item. Called by the silo
// manager only after it has been granted the global indexing token.
func (w *RecursiveWatcher) Drain() []QueueItem { return w.queue.Drain() }

// QueueLen reports how many distinct stored keys are currently pending.
func (w *RecursiveWatcher) QueueLen() int { return w.queue.Len() }

// Errors returns the channel of non-fatal fsnotify errors.
func (w *RecursiveWatcher) Errors() <-chan error { return w.errCh }

// Stop halts event processing, cancels debounce timers, and closes the
// underlying fsnotify watcher. Safe to call once; a second call is a no-op.
func (w *RecursiveWatcher) Stop() error {
	var closeErr error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.debouncer.Stop()
		closeErr = w.fsw.Close()
	})
	return closeErr
}
