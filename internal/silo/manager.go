package silo

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/siloindex/siloindex/internal/embed"
	"github.com/siloindex/siloindex/internal/search"
)

// Manager is the top-level silo lifecycle owner of spec §4.G: it holds
// every open Silo, the one process-wide Scheduler, and the cross-silo
// ActivityFeed they all report to.
type Manager struct {
	mu    sync.RWMutex
	silos map[string]*Silo

	scheduler *Scheduler
	activity  *ActivityFeed
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		silos:     make(map[string]*Silo),
		scheduler: NewScheduler(),
		activity:  NewActivityFeed(),
	}
}

// Activity returns the shared cross-silo activity feed.
func (m *Manager) Activity() *ActivityFeed { return m.activity }

// Open opens (or creates) a silo's database and registers it with the
// manager. It does not start watching or reconcile; call StartWatching and
// Reconcile on the returned Silo (or via the manager's wrappers) once ready.
func (m *Manager) Open(cfg Config, embedder embed.Embedder, queryPrefix, documentPrefix string) (*Silo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.silos[cfg.Name]; exists {
		return nil, fmt.Errorf("silo manager: silo %q already open", cfg.Name)
	}

	s, err := openSilo(cfg, embedder, queryPrefix, documentPrefix, m.scheduler, m.activity)
	if err != nil {
		return nil, err
	}
	m.silos[cfg.Name] = s
	return s, nil
}

// Get returns the named silo, if open.
func (m *Manager) Get(name string) (*Silo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.silos[name]
	return s, ok
}

// List returns every open silo, in no particular order.
func (m *Manager) List() []*Silo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Silo, 0, len(m.silos))
	for _, s := range m.silos {
		out = append(out, s)
	}
	return out
}

// Indexes returns the search.SiloIndex for every open silo, ready to pass
// to search.Engine.Search.
func (m *Manager) Indexes() []search.SiloIndex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]search.SiloIndex, 0, len(m.silos))
	for _, s := range m.silos {
		out = append(out, s.Index())
	}
	return out
}

// Disconnect stops the named silo (closing its database handle) without
// deleting its files, and removes it from the manager.
func (m *Manager) Disconnect(name string) error {
	m.mu.Lock()
	s, ok := m.silos[name]
	if ok {
		delete(m.silos, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("silo manager: silo %q not open", name)
	}
	return s.Stop()
}

// Delete stops the named silo and removes its database file (and WAL/shm
// sidecars), per spec §5: "stop first, then remove the database file."
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	s, ok := m.silos[name]
	if ok {
		delete(m.silos, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("silo manager: silo %q not open", name)
	}

	dbPath := s.Path()
	if err := s.Stop(); err != nil {
		return err
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	return nil
}

// Rename changes the in-memory key a silo is registered under. The
// database file itself is not moved; callers that persist configuration
// are responsible for updating the on-disk `silos.<name>` entry.
func (m *Manager) Rename(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.silos[oldName]
	if !ok {
		return fmt.Errorf("silo manager: silo %q not open", oldName)
	}
	if _, exists := m.silos[newName]; exists {
		return fmt.Errorf("silo manager: silo %q already exists", newName)
	}
	s.cfg.Name = newName
	delete(m.silos, oldName)
	m.silos[newName] = s
	return nil
}

// Rebuild deletes and reopens a silo against a fresh database, then runs a
// full reconcile — the recovery path spec §7 names for a silo stuck in the
// error state after unrecoverable database corruption.
func (m *Manager) Rebuild(ctx context.Context, name string, embedder embed.Embedder, queryPrefix, documentPrefix string) (*Silo, error) {
	m.mu.Lock()
	s, ok := m.silos[name]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("silo manager: silo %q not open", name)
	}
	cfg := s.cfg

	if err := m.Delete(ctx, name); err != nil {
		return nil, err
	}
	fresh, err := m.Open(cfg, embedder, queryPrefix, documentPrefix)
	if err != nil {
		return nil, err
	}
	if err := fresh.Reconcile(ctx, nil, nil); err != nil {
		return fresh, err
	}
	return fresh, nil
}
