package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWStore implements VectorStore over github.com/coder/hnsw, a pure-Go
// HNSW index. It realizes the vec_chunks table as a sidecar file next to
// the silo's SQLite database: the HNSW node key is always set equal to the
// chunk's SQLite-assigned rowid, so row-ID coherence (the same id exists in
// chunks, vec_chunks, and both FTS indices) holds by construction rather
// than through a separate ID-translation layer.
type HNSWStore struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorStoreConfig
	live   map[uint64]struct{} // ids present; lazily-deleted ids are absent but remain in the graph
	closed bool
}

type hnswMetadata struct {
	Live   map[uint64]struct{}
	Config VectorStoreConfig
}

// NewHNSWStore creates a new HNSW-based vector store for the given config.
func NewHNSWStore(cfg VectorStoreConfig) (*HNSWStore, error) {
	if cfg.Metric == "" {
		cfg.Metric = "cos"
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWStore{
		graph:  graph,
		config: cfg,
		live:   make(map[uint64]struct{}),
	}, nil
}

// Add inserts vectors keyed by their SQLite chunk rowid. If an id already
// has a node, the prior node is lazily orphaned rather than deleted — a
// direct delete-and-readd can corrupt the last node in coder/hnsw's graph.
func (s *HNSWStore) Add(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(v)}
		}
	}

	for i, id := range ids {
		key := uint64(id)

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if s.config.Metric == "cos" {
			normalizeVectorInPlace(vec)
		}

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.live[key] = struct{}{}
	}

	return nil
}

// Search finds the k nearest neighbors to query.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}
	if s.graph.Len() == 0 {
		return []VectorResult{}, nil
	}

	normalizedQuery := make([]float32, len(query))
	copy(normalizedQuery, query)
	if s.config.Metric == "cos" {
		normalizeVectorInPlace(normalizedQuery)
	}

	nodes := s.graph.Search(normalizedQuery, k)

	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		if _, ok := s.live[node.Key]; !ok {
			continue // lazily-deleted orphan
		}
		distance := s.graph.Distance(normalizedQuery, node.Value)
		results = append(results, VectorResult{
			ID:       int64(node.Key),
			Distance: distance,
			Score:    distanceToScore(distance, s.config.Metric),
		})
	}

	return results, nil
}

// Delete removes vectors by id using lazy deletion: the graph node stays,
// but the id is dropped from the live set so Search/Contains ignore it.
func (s *HNSWStore) Delete(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}
	for _, id := range ids {
		delete(s.live, uint64(id))
	}
	return nil
}

// Contains reports whether id has a live vector.
func (s *HNSWStore) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, ok := s.live[uint64(id)]
	return ok
}

// Count returns the number of live vectors.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.live)
}

// HNSWStats reports live vs orphaned node counts, used to decide when a
// silo should rebuild its vector index from the chunks table.
type HNSWStats struct {
	ValidIDs   int
	GraphNodes int
	Orphans    int
}

func (s *HNSWStore) Stats() HNSWStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return HNSWStats{}
	}
	nodes := s.graph.Len()
	return HNSWStats{ValidIDs: len(s.live), GraphNodes: nodes, Orphans: nodes - len(s.live)}
}

// Save persists the graph (temp file + atomic rename) and the live-id
// set (gob-encoded sidecar, also temp + rename).
func (s *HNSWStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpIndexPath := path + ".tmp"
	file, err := os.Create(tmpIndexPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpIndexPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpIndexPath, path); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return s.saveMetadata(path + ".meta")
}

func (s *HNSWStore) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}

	meta := hnswMetadata{Live: s.live, Config: s.config}
	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load loads the graph and live-id set from disk.
func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if err := s.graph.Import(reader); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

func (s *HNSWStore) loadMetadata(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("hnsw metadata close failed", slog.String("error", err.Error()))
		}
	}()

	var meta hnswMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("decode hnsw metadata: %w", err)
	}
	s.live = meta.Live
	s.config = meta.Config
	return nil
}

// Close releases resources. Idempotent.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

// ReadHNSWStoreDimensions reads Config.Dimensions from a store's sidecar
// metadata file without loading the graph itself. Returns 0 if absent.
func ReadHNSWStoreDimensions(vectorPath string) (int, error) {
	metaPath := vectorPath + ".meta"
	file, err := os.Open(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open hnsw metadata: %w", err)
	}
	defer file.Close()

	var meta hnswMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return 0, fmt.Errorf("decode hnsw metadata: %w", err)
	}
	return meta.Config.Dimensions, nil
}

var _ VectorStore = (*HNSWStore)(nil)

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// distanceToScore converts a distance value to a 0-1 similarity score.
func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1.0 / (1.0 + distance)
	default:
		return 1.0 - distance/2.0
	}
}
