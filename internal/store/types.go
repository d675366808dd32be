// Package store provides the per-silo persistence layer: a relational
// catalog of chunk/file rows, an HNSW-backed vector index, and three
// FTS5-backed inverted indices, all living beside one SQLite database file.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ContentType classifies a chunk's source file for query-time filtering.
type ContentType string

const (
	ContentTypeCode     ContentType = "code"
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeText     ContentType = "text"
)

// CurrentSchemaVersion is written to the meta table on silo creation and
// checked by migrations that add columns additively (heading_depth, tags_text).
const CurrentSchemaVersion = 2

// StoredKey is the portable file identifier "<dirIndex>:<relPath>", always
// using forward slashes regardless of host OS.
type StoredKey string

// FormatStoredKey builds a StoredKey from a zero-based root-directory index
// and a slash-separated relative path.
func FormatStoredKey(dirIndex int, relPath string) StoredKey {
	return StoredKey(strconv.Itoa(dirIndex) + ":" + filepathToSlash(relPath))
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// DirIndex splits a well-formed stored key into its directory index and
// relative path. ok is false for a
// legacy absolute-path key (no "N:" prefix), which callers should resolve
// via longest-prefix match against the silo's directory list instead.
func (k StoredKey) DirIndex() (int, string, bool) {
	s := string(k)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, false
	}
	return n, s[i+1:], true
}

// IsLegacyAbsolute reports whether k looks like a pre-stored-key absolute
// path rather than the "<dirIndex>:<relPath>" convention.
func (k StoredKey) IsLegacyAbsolute() bool {
	_, _, ok := k.DirIndex()
	return !ok
}

// Chunk is the atomic stored unit described by the data model: a stored-key
// file reference, a dense zero-based index within that file, a section
// path, text, line span, format-specific metadata, a content hash, a
// heading depth, and flattened tag text.
type Chunk struct {
	ID           int64 // shared row identifier across chunks/vec_chunks/FTS tables
	FilePath     StoredKey
	ChunkIndex   int
	SectionPath  []string
	Text         string
	StartLine    int // 1-based, inclusive
	EndLine      int // 1-based, inclusive
	Metadata     map[string]string
	ContentHash  string // sha256 hex of Text
	HeadingDepth int    // 0-6; 0 means not under a heading
	TagsText     string // flattened tags/aliases/titles for FTS

	ContentType ContentType
	Language    string
}

// SectionPathString joins the section path the way the FTS/tag layer and
// display code expect: " > " separated.
func (c *Chunk) SectionPathString() string {
	return strings.Join(c.SectionPath, " > ")
}

// FileRecord is one row per indexed file, feeding the file-path trigram index.
type FileRecord struct {
	ID       int64
	FilePath StoredKey
	BaseName string
}

// SiloMeta is the {model, dimensions, createdAt, version} + config snapshot
// blob stored in the meta table, enabling portable reconnection.
type SiloMeta struct {
	Model          string
	Dimensions     int
	CreatedAt      time.Time
	Version        int
	ConfigSnapshot []byte // JSON
}

// PreparedFile is the pipeline-to-storage handoff: a stored key's full new
// chunk set plus per-chunk embeddings, ready for the upsert protocol.
type PreparedFile struct {
	Key        StoredKey
	Chunks     []*Chunk
	Embeddings [][]float32
	MtimeMs    int64
}

// BM25Result is a single FTS5 BM25 match, row id plus a positive score
// (FTS5's bm25() returns negative values; callers negate before returning).
type BM25Result struct {
	ID           int64
	Score        float64
	MatchedTerms []string
}

// TrigramResult is a single substring match against a trigram FTS5 table.
type TrigramResult struct {
	ID    int64
	Score float64
}

// VectorResult is a single HNSW nearest-neighbor match.
type VectorResult struct {
	ID       int64
	Distance float32
	Score    float32 // normalized similarity, 0-1
}

// ErrDimensionMismatch indicates a vector whose length disagrees with the
// vector index's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// BM25Index is a full-text index keyed by the shared row id, used for both
// the BM25-on-text table and the BM25-on-tags table.
type BM25Index interface {
	Index(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]BM25Result, error)
	Delete(ctx context.Context, ids []int64) error
	Close() error
}

// Document is one row handed to a BM25Index.
type Document struct {
	ID      int64
	Content string
}

// TrigramIndex is a substring-search index, used for chunks_trigram and files_fts.
type TrigramIndex interface {
	Index(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]TrigramResult, error)
	Delete(ctx context.Context, ids []int64) error
	Close() error
}

// VectorStore is the vec_chunks ANN index.
type VectorStore interface {
	Add(ctx context.Context, ids []int64, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)
	Delete(ctx context.Context, ids []int64) error
	Contains(id int64) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// VectorStoreConfig configures the HNSW vector index.
type VectorStoreConfig struct {
	Dimensions int
	Metric     string // "cos" or "l2"
	M          int
	EfSearch   int
}

// DefaultVectorStoreConfig returns the spec's default HNSW tuning.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          32,
		EfSearch:   64,
	}
}

// IndexStats reports size information about a silo's indices.
type IndexStats struct {
	ChunkCount int
	FileCount  int
	VectorSize int
}
