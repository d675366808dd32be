package reconcile

import (
	"context"
	"fmt"

	"github.com/siloindex/siloindex/internal/scanner"
	"github.com/siloindex/siloindex/internal/store"
)

// Reconciler brings one silo's database into agreement with its configured
// root directories.
type Reconciler struct {
	Silo           *store.Silo
	Pipeline       *Pipeline
	Opts           Options
	DocumentPrefix string
}

type diskEntry struct {
	absPath string
	relPath string
	mtimeMs int64
}

// Run executes the five-step algorithm from spec.md §4.E: walk disk, diff
// against the persisted mtime map, flush adds/updates in batches, delete
// removals, and report progress throughout. shouldStop is polled before
// every prepared file; when it returns true, Run returns nil without going on
// to removals, leaving every file upserted so far durably committed.
func (r *Reconciler) Run(ctx context.Context, shouldStop func() bool, onProgress func(Progress)) error {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	if shouldStop == nil {
		shouldStop = func() bool { return false }
	}

	onProgress(Progress{Phase: PhaseScanning})
	diskStored, err := r.walkDisk(ctx)
	if err != nil {
		return err
	}

	persisted, err := r.Silo.Mtimes(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: load mtimes: %w", err)
	}

	var add, update, remove []store.StoredKey
	for key := range diskStored {
		if oldMtime, ok := persisted[key]; !ok {
			add = append(add, key)
		} else if oldMtime != diskStored[key].mtimeMs {
			update = append(update, key)
		}
	}
	for key := range persisted {
		if _, ok := diskStored[key]; !ok {
			remove = append(remove, key)
		}
	}

	toIndex := append(append([]store.StoredKey{}, add...), update...)
	total := len(toIndex) + len(remove)
	current := len(persisted) - len(update) - len(remove)
	if current < 0 {
		current = 0
	}

	if err := r.flushIndexing(ctx, diskStored, toIndex, shouldStop, onProgress, current, total); err != nil {
		return err
	}
	if shouldStop() {
		return nil
	}

	if len(remove) > 0 {
		if err := r.flushRemovals(ctx, remove, onProgress, current+len(toIndex), total); err != nil {
			return err
		}
	}

	onProgress(Progress{Phase: PhaseDone, Current: total, Total: total})
	return nil
}

func (r *Reconciler) walkDisk(ctx context.Context) (map[store.StoredKey]diskEntry, error) {
	diskStored := make(map[store.StoredKey]diskEntry)
	for dirIndex, root := range r.Opts.Roots {
		results, err := scanner.Walk(ctx, root.Path, scanner.Options{
			DirIgnore:  r.Opts.DirIgnore,
			FileIgnore: r.Opts.FileIgnore,
			Extensions: r.Opts.Extensions,
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile: walk %s: %w", root.Path, err)
		}
		for res := range results {
			if res.Err != nil || res.File == nil {
				continue
			}
			key := store.FormatStoredKey(dirIndex, res.File.RelPath)
			diskStored[key] = diskEntry{
				absPath: res.File.AbsPath,
				relPath: res.File.RelPath,
				mtimeMs: res.File.ModTime.UnixMilli(),
			}
		}
	}
	return diskStored, nil
}

// flushIndexing prepares and upserts keys one file at a time. store.Silo.Upsert
// commits one file per call, so files are not accumulated into a multi-file
// transaction; Options.BatchSize only sets how many files pass between
// checks of ctx cancellation — see DESIGN.md.
func (r *Reconciler) flushIndexing(
	ctx context.Context, diskStored map[store.StoredKey]diskEntry, keys []store.StoredKey,
	shouldStop func() bool, onProgress func(Progress), current, total int,
) error {
	batch := r.Opts.batchSize()
	for i := 0; i < len(keys); i++ {
		key := keys[i]
		if shouldStop() {
			return nil
		}
		entry := diskStored[key]
		onProgress(Progress{Phase: PhaseIndexing, Current: current, Total: total, File: entry.relPath})

		prepared, err := r.Pipeline.PrepareFile(ctx, key, entry.absPath, entry.relPath, entry.mtimeMs, r.DocumentPrefix)
		if err != nil {
			return err
		}
		if err := r.Silo.Upsert(ctx, prepared); err != nil {
			return fmt.Errorf("reconcile: upsert %s: %w", key, err)
		}
		current++

		if (i+1)%batch == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}
	return nil
}

func (r *Reconciler) flushRemovals(ctx context.Context, keys []store.StoredKey, onProgress func(Progress), current, total int) error {
	for _, key := range keys {
		onProgress(Progress{Phase: PhaseRemoving, Current: current, Total: total, File: string(key)})
		if err := r.Silo.Delete(ctx, key); err != nil {
			return fmt.Errorf("reconcile: delete %s: %w", key, err)
		}
		current++
	}
	return nil
}
