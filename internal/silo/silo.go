package silo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/siloindex/siloindex/internal/embed"
	"github.com/siloindex/siloindex/internal/ignore"
	"github.com/siloindex/siloindex/internal/reconcile"
	"github.com/siloindex/siloindex/internal/search"
	"github.com/siloindex/siloindex/internal/store"
	"github.com/siloindex/siloindex/internal/watcher"
)

// Config describes one silo's configured source directories, storage
// location, and indexing settings — the subset of spec §6's TOML
// `silos.<name>` table the manager needs to open and watch it.
type Config struct {
	Name           string
	Directories    []string
	DBPath         string
	Extensions     []string
	Ignore         []string
	IgnoreFiles    []string
	ModelName      string
	Sleeping       bool
	Description    string
	Color          string
	Icon           string
	DebounceWindow time.Duration
}

// Silo is one addressable index: its storage handle, its watchers, its
// lifecycle state, and the hooks the manager uses to schedule indexing work
// through the shared Scheduler and ActivityFeed.
type Silo struct {
	cfg      Config
	store    *store.Silo
	pipeline *reconcile.Pipeline
	embedder embed.Embedder

	queryPrefix    string
	documentPrefix string

	watchers []*watcher.RecursiveWatcher
	lock     *embed.FileLock

	sm        *stateMachine
	scheduler *Scheduler
	activity  *ActivityFeed

	mu            sync.Mutex
	progress      reconcile.Progress
	lastUpdate    time.Time
	errMessage    string
	modelMismatch bool

	drainSignal chan struct{}
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// openSilo opens the store, pipeline, and cross-process directory lock for
// cfg. It does not start watchers or run a reconcile; callers do that once
// the Silo is registered with a Manager.
func openSilo(cfg Config, embedder embed.Embedder, queryPrefix, documentPrefix string, scheduler *Scheduler, activity *ActivityFeed) (*Silo, error) {
	if len(cfg.Directories) == 0 {
		return nil, fmt.Errorf("silo %q: at least one directory required", cfg.Name)
	}

	lock := embed.NewFileLock(filepath.Dir(cfg.DBPath))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("silo %q: acquire directory lock: %w", cfg.Name, err)
	}
	if !acquired {
		return nil, fmt.Errorf("silo %q: data directory %s is locked by another process", cfg.Name, filepath.Dir(cfg.DBPath))
	}

	st, err := store.OpenSilo(cfg.DBPath, embedder.Dimensions())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("silo %q: open store: %w", cfg.Name, err)
	}

	meta, err := st.Meta(context.Background())
	modelMismatch := false
	if err == nil && meta.Model != "" && meta.Model != embedder.ModelName() {
		modelMismatch = true
	}

	return &Silo{
		cfg:            cfg,
		store:          st,
		pipeline:       reconcile.NewPipeline(embedder),
		embedder:       embedder,
		queryPrefix:    queryPrefix,
		documentPrefix: documentPrefix,
		lock:           lock,
		sm:             newStateMachine(),
		scheduler:      scheduler,
		activity:       activity,
		modelMismatch:  modelMismatch,
		drainSignal:    make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
	}, nil
}

func (s *Silo) reconcileOptions() reconcile.Options {
	roots := make([]reconcile.RootDir, len(s.cfg.Directories))
	for i, d := range s.cfg.Directories {
		roots[i] = reconcile.RootDir{Path: d}
	}
	return reconcile.Options{
		Roots:      roots,
		DirIgnore:  ignore.New(append(append([]string{}, ignore.DefaultDirPatterns...), s.cfg.Ignore...)),
		FileIgnore: ignore.New(s.cfg.IgnoreFiles),
		Extensions: ignore.NewExtensions(s.cfg.Extensions),
	}
}

// Index returns the search.SiloIndex this silo contributes to a
// cross-silo search.Engine call.
func (s *Silo) Index() search.SiloIndex {
	return search.SiloIndex{ID: s.cfg.Name, Store: s.store, Embedder: s.embedder, QueryPrefix: s.queryPrefix}
}

// Name returns the silo's configured name.
func (s *Silo) Name() string { return s.cfg.Name }

// State returns the silo's current lifecycle state.
func (s *Silo) State() State { return s.sm.get() }

// Reconcile runs the disk/database diff (spec §4.E) under the global
// indexing token, reporting progress via onProgress (may be nil) and
// recording an ActivityEvent per indexed or deleted file.
func (s *Silo) Reconcile(ctx context.Context, shouldStop func() bool, onProgress func(reconcile.Progress)) error {
	if err := s.sm.transition(StateWaiting); err != nil {
		return err
	}
	select {
	case <-s.scheduler.Acquire(s.cfg.Name):
	case <-ctx.Done():
		s.sm.forceTo(StateReady)
		return ctx.Err()
	}
	defer s.scheduler.Release(s.cfg.Name)

	if err := s.sm.transition(StateScanning); err != nil {
		return err
	}

	r := &reconcile.Reconciler{Silo: s.store, Pipeline: s.pipeline, Opts: s.reconcileOptions(), DocumentPrefix: s.documentPrefix}

	start := time.Now()
	runErr := r.Run(ctx, shouldStop, func(p reconcile.Progress) {
		s.mu.Lock()
		s.progress = p
		s.mu.Unlock()
		if p.Phase == reconcile.PhaseIndexing && p.File != "" {
			s.recordActivity(ActivityIndexed, p.File, 0, 0, "")
			_ = s.sm.transition(StateIndexing)
		}
		if p.Phase == reconcile.PhaseRemoving && p.File != "" {
			s.recordActivity(ActivityDeleted, p.File, 0, 0, "")
		}
		if onProgress != nil {
			onProgress(p)
		}
	})

	s.mu.Lock()
	s.progress = reconcile.Progress{}
	s.lastUpdate = time.Now()
	if runErr != nil {
		s.errMessage = runErr.Error()
	} else {
		s.errMessage = ""
	}
	s.mu.Unlock()

	if runErr != nil {
		s.recordActivity(ActivityError, "", 0, time.Since(start).Milliseconds(), runErr.Error())
		_ = s.sm.transition(StateError)
		return runErr
	}
	return s.sm.transition(StateReady)
}

// StartWatching registers a RecursiveWatcher per configured directory and
// begins the drain loop that acquires the indexing token whenever the
// watcher queue goes from empty to non-empty (spec §4.F's draining protocol).
func (s *Silo) StartWatching(ctx context.Context) error {
	opts := watcher.Options{DebounceWindow: s.cfg.DebounceWindow}.WithDefaults()
	dirIgnore := ignore.New(append(append([]string{}, ignore.DefaultDirPatterns...), s.cfg.Ignore...))
	fileIgnore := ignore.New(s.cfg.IgnoreFiles)
	extensions := ignore.NewExtensions(s.cfg.Extensions)

	for dirIndex, dir := range s.cfg.Directories {
		dirIndex := dirIndex
		w, err := watcher.NewRecursiveWatcher(dir, opts, dirIgnore, fileIgnore, extensions, func(relPath string) string {
			return string(store.FormatStoredKey(dirIndex, relPath))
		})
		if err != nil {
			return fmt.Errorf("silo %q: start watcher on %s: %w", s.cfg.Name, dir, err)
		}
		w.OnQueued(s.requestDrain)
		if err := w.Start(ctx, dir); err != nil {
			return fmt.Errorf("silo %q: start watcher on %s: %w", s.cfg.Name, dir, err)
		}
		s.watchers = append(s.watchers, w)
	}

	go s.drainLoop(ctx)
	return nil
}

func (s *Silo) requestDrain() {
	select {
	case s.drainSignal <- struct{}{}:
	default:
	}
}

func (s *Silo) drainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.drainSignal:
			s.drainOnce(ctx)
		}
	}
}

// drainOnce acquires the indexing token, drains every watcher's queue, and
// re-checks for work that arrived mid-drain before releasing the token
// (spec §4.F: "re-requests if needed").
func (s *Silo) drainOnce(ctx context.Context) {
	if err := s.sm.transition(StateWaiting); err != nil {
		return
	}
	select {
	case <-s.scheduler.Acquire(s.cfg.Name):
	case <-ctx.Done():
		s.sm.forceTo(StateReady)
		return
	}
	defer s.scheduler.Release(s.cfg.Name)
	defer s.sm.transition(StateReady)
	_ = s.sm.transition(StateIndexing)

	for {
		var items []watcher.QueueItem
		for _, w := range s.watchers {
			items = append(items, w.Drain()...)
		}
		if len(items) == 0 {
			return
		}
		s.processQueueItems(ctx, items)
	}
}

func (s *Silo) processQueueItems(ctx context.Context, items []watcher.QueueItem) {
	for _, item := range items {
		start := time.Now()
		key := store.StoredKey(item.Key)
		dirIndex, relPath, ok := key.DirIndex()
		if !ok || dirIndex >= len(s.cfg.Directories) {
			s.recordActivity(ActivityError, item.Path, 0, 0, "stored key outside configured directories")
			continue
		}
		absPath := filepath.Join(s.cfg.Directories[dirIndex], filepath.FromSlash(relPath))

		if item.Operation == watcher.QueueDelete {
			if err := s.store.Delete(ctx, key); err != nil {
				s.recordActivity(ActivityError, absPath, 0, time.Since(start).Milliseconds(), err.Error())
				continue
			}
			s.recordActivity(ActivityDeleted, absPath, 0, time.Since(start).Milliseconds(), "")
			continue
		}

		info, err := os.Stat(absPath)
		if err != nil {
			s.recordActivity(ActivityError, absPath, 0, time.Since(start).Milliseconds(), err.Error())
			continue
		}
		prepared, err := s.pipeline.PrepareFile(ctx, key, absPath, relPath, info.ModTime().UnixMilli(), s.documentPrefix)
		if err != nil {
			s.recordActivity(ActivityError, absPath, 0, time.Since(start).Milliseconds(), err.Error())
			continue
		}
		if err := s.store.Upsert(ctx, prepared); err != nil {
			s.recordActivity(ActivityError, absPath, 0, time.Since(start).Milliseconds(), err.Error())
			continue
		}
		s.recordActivity(ActivityReindexed, absPath, len(prepared.Chunks), time.Since(start).Milliseconds(), "")
	}
	s.mu.Lock()
	s.lastUpdate = time.Now()
	s.mu.Unlock()
}

func (s *Silo) recordActivity(kind ActivityEventType, path string, chunkCount int, durationMs int64, errMsg string) {
	if s.activity == nil {
		return
	}
	s.activity.Push(ActivityEvent{
		Timestamp:    time.Now(),
		SiloName:     s.cfg.Name,
		FilePath:     path,
		EventType:    kind,
		ChunkCount:   chunkCount,
		DurationMs:   durationMs,
		ErrorMessage: errMsg,
	})
}

// Stop sets the silo to stopped, halts watchers, and waits for any
// in-flight drain to observe stopCh (spec §5: "drains watcher queue without
// enqueuing new work, waits for any in-flight batch to finish, closes the
// database handle").
func (s *Silo) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	for _, w := range s.watchers {
		_ = w.Stop()
	}
	_ = s.sm.transition(StateStopped)
	s.pipeline.Close()
	err := s.store.Close()
	_ = s.lock.Unlock()
	return err
}

// Path returns the silo's database file path.
func (s *Silo) Path() string { return s.store.Path() }
