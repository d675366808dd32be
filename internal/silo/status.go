package silo

import (
	"context"
	"os"
	"time"

	"github.com/siloindex/siloindex/internal/reconcile"
)

// Status is the getStatus() surface spec §4.G names: indexed file/chunk
// counts, database size, last-update time, watcher state, error message,
// in-flight reconcile progress, model-mismatch flag, and resolved
// database path / model name.
type Status struct {
	Name          string
	State         State
	FileCount     int
	ChunkCount    int
	DBSizeBytes   int64
	LastUpdate    time.Time
	ErrorMessage  string
	Progress      *reconcile.Progress // nil when no reconcile is in flight
	ModelMismatch bool
	DBPath        string
	ModelName     string
}

// Status snapshots the silo's current lifecycle and index state.
func (s *Silo) Status(ctx context.Context) Status {
	stats, _ := s.store.Stats(ctx)

	var dbSize int64
	if info, err := os.Stat(s.store.Path()); err == nil {
		dbSize = info.Size()
	}

	s.mu.Lock()
	lastUpdate := s.lastUpdate
	errMsg := s.errMessage
	var progress *reconcile.Progress
	if s.progress.Phase != "" {
		p := s.progress
		progress = &p
	}
	s.mu.Unlock()

	return Status{
		Name:          s.cfg.Name,
		State:         s.sm.get(),
		FileCount:     stats.FileCount,
		ChunkCount:    stats.ChunkCount,
		DBSizeBytes:   dbSize,
		LastUpdate:    lastUpdate,
		ErrorMessage:  errMsg,
		Progress:      progress,
		ModelMismatch: s.modelMismatch,
		DBPath:        s.store.Path(),
		ModelName:     s.embedder.ModelName(),
	}
}
