package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	sierr "github.com/siloindex/siloindex/internal/errors"
)

// Silo is the physical storage model of spec.md §4.C: one SQLite database
// file (WAL-journaled) holding the chunks/files/mtimes/meta relational
// tables and three FTS5 virtual tables, plus an HNSW vector index persisted
// as a sidecar file beside the database.
type Silo struct {
	mu     sync.Mutex
	db     *sql.DB
	vector *HNSWStore
	dbPath string
	dims   int
	closed bool
}

// OpenSilo opens (creating if absent) the silo database at dbPath and its
// HNSW sidecar, validating integrity and running additive migrations.
func OpenSilo(dbPath string, dims int) (*Silo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create silo directory: %w", err)
	}

	if err := validateSiloIntegrity(dbPath); err != nil {
		slog.Warn("silo database corrupted, clearing", slog.String("path", dbPath), slog.String("error", err.Error()))
		_ = os.Remove(dbPath)
		_ = os.Remove(dbPath + "-wal")
		_ = os.Remove(dbPath + "-shm")
	}

	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	s := &Silo{db: db, dbPath: dbPath, dims: dims}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	vectorPath := vectorSidecarPath(dbPath)
	vs, err := NewHNSWStore(DefaultVectorStoreConfig(dims))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		if err := vs.Load(vectorPath); err != nil {
			slog.Warn("vector sidecar unreadable, starting empty", slog.String("path", vectorPath), slog.String("error", err.Error()))
			vs, _ = NewHNSWStore(DefaultVectorStoreConfig(dims))
		}
	}
	s.vector = vs

	return s, nil
}

func vectorSidecarPath(dbPath string) string {
	return strings.TrimSuffix(dbPath, filepath.Ext(dbPath)) + ".hnsw"
}

func validateSiloIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// migrate creates the schema on first open and applies additive column
// migrations (heading_depth, tags_text) on older databases, checking
// pragma_table_info before each ALTER TABLE.
func (s *Silo) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT UNIQUE NOT NULL,
		base_name TEXT NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		file_id UNINDEXED,
		file_path,
		base_name,
		tokenize='trigram'
	);

	CREATE TABLE IF NOT EXISTS mtimes (
		file_path TEXT PRIMARY KEY,
		mtime_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		section_path TEXT NOT NULL,
		text TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		content_hash TEXT NOT NULL,
		heading_depth INTEGER NOT NULL DEFAULT 0,
		tags_text TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		chunk_id UNINDEXED,
		text,
		tokenize='unicode61'
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_trigram USING fts5(
		chunk_id UNINDEXED,
		text,
		tokenize='trigram'
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_meta_fts USING fts5(
		chunk_id UNINDEXED,
		tags_text,
		tokenize='unicode61'
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Additive migration guard: older databases created before heading_depth
	// and tags_text existed get them backfilled via ALTER TABLE.
	for _, col := range []struct{ name, ddl string }{
		{"heading_depth", "ALTER TABLE chunks ADD COLUMN heading_depth INTEGER NOT NULL DEFAULT 0"},
		{"tags_text", "ALTER TABLE chunks ADD COLUMN tags_text TEXT NOT NULL DEFAULT ''"},
	} {
		has, err := s.hasColumn("chunks", col.name)
		if err != nil {
			return err
		}
		if !has {
			if _, err := s.db.Exec(col.ddl); err != nil {
				return fmt.Errorf("migrate column %s: %w", col.name, err)
			}
		}
	}

	var versionSet bool
	row := s.db.QueryRow("SELECT 1 FROM meta WHERE key = 'version'")
	versionSet = row.Scan(new(int)) == nil
	if !versionSet {
		_, err := s.db.Exec("INSERT OR IGNORE INTO meta(key, value) VALUES ('version', ?)", strconv.Itoa(CurrentSchemaVersion))
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Silo) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Upsert runs the full per-file replace protocol from spec.md §4.C inside
// one SQL transaction: delete the file's existing chunk rows from every
// index, ensure the file record exists, insert the new chunks into the
// relational table and all three FTS indices, then upsert the mtime. The
// HNSW vector mutation happens only after the SQL transaction commits, so a
// rolled-back upsert (e.g. a dimension mismatch, checked up front) leaves
// no orphan rows anywhere.
func (s *Silo) Upsert(ctx context.Context, p *PreparedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("silo is closed")
	}

	for _, v := range p.Embeddings {
		if len(v) != s.dims {
			return sierr.Invariant("upsert", string(p.Key), fmt.Sprintf("embedding dimension %d does not match silo dimension %d", len(v), s.dims))
		}
	}

	if len(p.Chunks) == 0 {
		return s.deleteLocked(ctx, p.Key)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sierr.Database("upsert/begin", err, false)
	}
	defer func() { _ = tx.Rollback() }()

	oldIDs, err := queryOldChunkIDs(ctx, tx, p.Key)
	if err != nil {
		return sierr.Database("upsert/query-old", err, false)
	}
	if err := deleteChunkRows(ctx, tx, oldIDs); err != nil {
		return sierr.Database("upsert/delete-old", err, false)
	}

	fileID, err := ensureFileRow(ctx, tx, p.Key)
	if err != nil {
		return sierr.Database("upsert/ensure-file", err, false)
	}
	_ = fileID

	newIDs := make([]int64, len(p.Chunks))
	for i, c := range p.Chunks {
		c.FilePath = p.Key
		metaJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return sierr.Invariant("upsert", string(p.Key), "metadata not JSON-encodable")
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO chunks(file_path, chunk_index, section_path, text, start_line, end_line,
				metadata, content_hash, heading_depth, tags_text, content_type, language)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(c.FilePath), c.ChunkIndex, c.SectionPathString(), c.Text, c.StartLine, c.EndLine,
			string(metaJSON), c.ContentHash, c.HeadingDepth, c.TagsText, string(c.ContentType), c.Language)
		if err != nil {
			return sierr.Database("upsert/insert-chunk", err, false)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return sierr.Database("upsert/last-insert-id", err, false)
		}
		c.ID = id
		newIDs[i] = id

		if _, err := tx.ExecContext(ctx, `INSERT INTO chunks_fts(chunk_id, text) VALUES (?, ?)`, id, bm25TokenizedText(c.Text)); err != nil {
			return sierr.Database("upsert/insert-fts", err, false)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO chunks_trigram(chunk_id, text) VALUES (?, ?)`, id, c.Text); err != nil {
			return sierr.Database("upsert/insert-trigram", err, false)
		}
		if strings.TrimSpace(c.TagsText) != "" {
			if _, err := tx.ExecContext(ctx, `INSERT INTO chunks_meta_fts(chunk_id, tags_text) VALUES (?, ?)`, id, bm25TokenizedText(c.TagsText)); err != nil {
				return sierr.Database("upsert/insert-tags", err, false)
			}
		}
	}

	if err := upsertMtime(ctx, tx, p.Key, p.MtimeMs); err != nil {
		return sierr.Database("upsert/mtime", err, false)
	}

	if err := tx.Commit(); err != nil {
		return sierr.Database("upsert/commit", err, false)
	}

	if len(oldIDs) > 0 {
		_ = s.vector.Delete(ctx, oldIDs)
	}
	if len(newIDs) > 0 {
		if err := s.vector.Add(ctx, newIDs, p.Embeddings); err != nil {
			// SQL side already committed; this is a post-commit best-effort
			// step, logged rather than rolled back (the vector index is a
			// side file, not part of the SQL transaction).
			slog.Error("vector add failed after commit", slog.String("key", string(p.Key)), slog.String("error", err.Error()))
			return err
		}
	}

	return nil
}

// Delete removes every row for a stored key across all indices.
func (s *Silo) Delete(ctx context.Context, key StoredKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("silo is closed")
	}
	return s.deleteLocked(ctx, key)
}

func (s *Silo) deleteLocked(ctx context.Context, key StoredKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sierr.Database("delete/begin", err, false)
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := queryOldChunkIDs(ctx, tx, key)
	if err != nil {
		return sierr.Database("delete/query", err, false)
	}
	if err := deleteChunkRows(ctx, tx, ids); err != nil {
		return sierr.Database("delete/rows", err, false)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE file_path = ?`, string(key)); err != nil {
		return sierr.Database("delete/file", err, false)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files_fts WHERE file_path = ?`, string(key)); err != nil {
		return sierr.Database("delete/file-fts", err, false)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mtimes WHERE file_path = ?`, string(key)); err != nil {
		return sierr.Database("delete/mtime", err, false)
	}
	if err := tx.Commit(); err != nil {
		return sierr.Database("delete/commit", err, false)
	}
	if len(ids) > 0 {
		_ = s.vector.Delete(ctx, ids)
	}
	return nil
}

func queryOldChunkIDs(ctx context.Context, tx *sql.Tx, key StoredKey) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM chunks WHERE file_path = ?`, string(key))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func deleteChunkRows(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	in := strings.Join(placeholders, ",")
	for _, table := range []string{"chunks_fts", "chunks_trigram", "chunks_meta_fts"} {
		q := fmt.Sprintf("DELETE FROM %s WHERE chunk_id IN (%s)", table, in)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	q := fmt.Sprintf("DELETE FROM chunks WHERE id IN (%s)", in)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete from chunks: %w", err)
	}
	return nil
}

func ensureFileRow(ctx context.Context, tx *sql.Tx, key StoredKey) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM files WHERE file_path = ?`, string(key)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	base := key
	if idx := strings.LastIndexByte(string(key), '/'); idx >= 0 {
		base = key[idx+1:]
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO files(file_path, base_name) VALUES (?, ?)`, string(key), string(base))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO files_fts(file_id, file_path, base_name) VALUES (?, ?, ?)`, id, string(key), string(base)); err != nil {
		return 0, err
	}
	return id, nil
}

func upsertMtime(ctx context.Context, tx *sql.Tx, key StoredKey, mtimeMs int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO mtimes(file_path, mtime_ms) VALUES (?, ?)
		ON CONFLICT(file_path) DO UPDATE SET mtime_ms = excluded.mtime_ms`,
		string(key), mtimeMs)
	return err
}

// bm25TokenizedText pre-tokenizes text with code-aware splitting before it
// is handed to a unicode61 FTS5 table, matching the teacher's BM25 index.
func bm25TokenizedText(text string) string {
	tokens := TokenizeCode(text)
	return strings.Join(tokens, " ")
}

// SearchBM25 ranks chunks by BM25 relevance against chunks_fts. FTS5's
// bm25() returns increasingly negative scores for better matches; results
// are negated so higher is better, matching every other signal.
func (s *Silo) SearchBM25(ctx context.Context, query string, limit int) ([]BM25Result, error) {
	q := bm25TokenizedText(query)
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(chunks_fts) AS rank
		FROM chunks_fts WHERE chunks_fts MATCH ?
		ORDER BY rank LIMIT ?`, escapeFTSQuery(q), limit)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}
	defer rows.Close()

	var out []BM25Result
	for rows.Next() {
		var id int64
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		out = append(out, BM25Result{ID: id, Score: -rank})
	}
	return out, rows.Err()
}

// SearchTags ranks chunks by BM25 relevance against chunks_meta_fts (tags_text).
func (s *Silo) SearchTags(ctx context.Context, query string, limit int) ([]BM25Result, error) {
	q := bm25TokenizedText(query)
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(chunks_meta_fts) AS rank
		FROM chunks_meta_fts WHERE chunks_meta_fts MATCH ?
		ORDER BY rank LIMIT ?`, escapeFTSQuery(q), limit)
	if err != nil {
		return nil, fmt.Errorf("tags search: %w", err)
	}
	defer rows.Close()

	var out []BM25Result
	for rows.Next() {
		var id int64
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		out = append(out, BM25Result{ID: id, Score: -rank})
	}
	return out, rows.Err()
}

// SearchTrigram ranks chunks against the trigram-tokenized chunks_trigram
// table by FTS5 bm25(); scores are the negated rank, so higher is better.
func (s *Silo) SearchTrigram(ctx context.Context, query string, limit int) ([]TrigramResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(chunks_trigram) AS rank
		FROM chunks_trigram WHERE chunks_trigram MATCH ?
		ORDER BY rank LIMIT ?`, escapeFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("trigram search: %w", err)
	}
	defer rows.Close()

	var out []TrigramResult
	for rows.Next() {
		var id int64
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		out = append(out, TrigramResult{ID: id, Score: -rank})
	}
	return out, rows.Err()
}

// SearchFilepathTrigram ranks files by substring match against files_fts,
// returning file ids (not chunk ids) for the caller to expand into chunks.
func (s *Silo) SearchFilepathTrigram(ctx context.Context, query string, limit int) ([]TrigramResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_id, bm25(files_fts) AS rank
		FROM files_fts WHERE files_fts MATCH ?
		ORDER BY rank LIMIT ?`, escapeFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("filepath trigram search: %w", err)
	}
	defer rows.Close()

	var out []TrigramResult
	for rows.Next() {
		var id int64
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		out = append(out, TrigramResult{ID: id, Score: -rank})
	}
	return out, rows.Err()
}

// SearchVector ranks chunks by cosine similarity against the HNSW index.
func (s *Silo) SearchVector(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	return s.vector.Search(ctx, query, k)
}

// ChunksForFiles resolves file ids (from SearchFilepathTrigram) into their
// chunk rows, used to fold filepath matches into the chunk-ranked result set.
func (s *Silo) ChunksForFiles(ctx context.Context, fileIDs []int64) ([]*Chunk, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(fileIDs))
	args := make([]any, len(fileIDs))
	for i, id := range fileIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT file_path FROM files WHERE id IN (%s)`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	placeholders = make([]string, len(paths))
	args = make([]any, len(paths))
	for i, p := range paths {
		placeholders[i] = "?"
		args[i] = p
	}
	q := fmt.Sprintf(`SELECT id, file_path, chunk_index, section_path, text, start_line, end_line,
		metadata, content_hash, heading_depth, tags_text, content_type, language
		FROM chunks WHERE file_path IN (%s)`, strings.Join(placeholders, ","))
	crows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer crows.Close()

	var out []*Chunk
	for crows.Next() {
		c := &Chunk{}
		var filePath, sectionPath, metaJSON string
		if err := crows.Scan(&c.ID, &filePath, &c.ChunkIndex, &sectionPath, &c.Text, &c.StartLine, &c.EndLine,
			&metaJSON, &c.ContentHash, &c.HeadingDepth, &c.TagsText, &c.ContentType, &c.Language); err != nil {
			return nil, err
		}
		c.FilePath = StoredKey(filePath)
		if sectionPath != "" {
			c.SectionPath = strings.Split(sectionPath, " > ")
		}
		_ = json.Unmarshal([]byte(metaJSON), &c.Metadata)
		out = append(out, c)
	}
	return out, crows.Err()
}

// FilePathsByID resolves file table row ids (as returned by
// SearchFilepathTrigram) to their stored keys, used by the query engine to
// attribute a filepath-trigram rank back to the chunks of each matched file.
func (s *Silo) FilePathsByID(ctx context.Context, fileIDs []int64) (map[int64]StoredKey, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(fileIDs))
	args := make([]any, len(fileIDs))
	for i, id := range fileIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, file_path FROM files WHERE id IN (%s)`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]StoredKey, len(fileIDs))
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		out[id] = StoredKey(path)
	}
	return out, rows.Err()
}

// escapeFTSQuery wraps a raw query string into an FTS5 string literal so
// that user input containing FTS operators (AND, OR, NOT, -, *, ") is
// treated as literal text rather than query syntax, one token per quoted
// group.
func escapeFTSQuery(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// Mtimes returns the full stored-key -> millisecond-mtime map, used by the
// reconciler to diff against disk.
func (s *Silo) Mtimes(ctx context.Context) (map[StoredKey]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, mtime_ms FROM mtimes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[StoredKey]int64)
	for rows.Next() {
		var key string
		var mtime int64
		if err := rows.Scan(&key, &mtime); err != nil {
			return nil, err
		}
		out[StoredKey(key)] = mtime
	}
	return out, rows.Err()
}

// GetChunks fetches full chunk rows by id, preserving the order of ids.
func (s *Silo) GetChunks(ctx context.Context, ids []int64) ([]*Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := fmt.Sprintf(`SELECT id, file_path, chunk_index, section_path, text, start_line, end_line,
		metadata, content_hash, heading_depth, tags_text, content_type, language
		FROM chunks WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*Chunk, len(ids))
	for rows.Next() {
		c := &Chunk{}
		var filePath, sectionPath, metaJSON string
		if err := rows.Scan(&c.ID, &filePath, &c.ChunkIndex, &sectionPath, &c.Text, &c.StartLine, &c.EndLine,
			&metaJSON, &c.ContentHash, &c.HeadingDepth, &c.TagsText, &c.ContentType, &c.Language); err != nil {
			return nil, err
		}
		c.FilePath = StoredKey(filePath)
		if sectionPath != "" {
			c.SectionPath = strings.Split(sectionPath, " > ")
		}
		_ = json.Unmarshal([]byte(metaJSON), &c.Metadata)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// SetMeta writes the silo's meta record.
func (s *Silo) SetMeta(ctx context.Context, m SiloMeta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	kv := map[string]string{
		"model":      m.Model,
		"dimensions": strconv.Itoa(m.Dimensions),
		"createdAt":  m.CreatedAt.Format(time.RFC3339),
		"version":    strconv.Itoa(m.Version),
		"config":     string(m.ConfigSnapshot),
	}
	for k, v := range kv {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Meta reads the silo's meta record.
func (s *Silo) Meta(ctx context.Context) (SiloMeta, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return SiloMeta{}, err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return SiloMeta{}, err
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return SiloMeta{}, err
	}

	dims, _ := strconv.Atoi(kv["dimensions"])
	version, _ := strconv.Atoi(kv["version"])
	createdAt, _ := time.Parse(time.RFC3339, kv["createdAt"])
	return SiloMeta{
		Model:          kv["model"],
		Dimensions:     dims,
		CreatedAt:      createdAt,
		Version:        version,
		ConfigSnapshot: []byte(kv["config"]),
	}, nil
}

// Vector exposes the underlying vector store for the search engine.
func (s *Silo) Vector() VectorStore { return s.vector }

// DB exposes the raw connection for FTS queries issued by the search engine.
func (s *Silo) DB() *sql.DB { return s.db }

// Stats reports row counts used by silo status reporting.
func (s *Silo) Stats(ctx context.Context) (IndexStats, error) {
	var stats IndexStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.ChunkCount); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&stats.FileCount); err != nil {
		return stats, err
	}
	stats.VectorSize = s.vector.Count()
	return stats, nil
}

// Save flushes the database's WAL and persists the vector sidecar.
func (s *Silo) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return err
	}
	return s.vector.Save(vectorSidecarPath(s.dbPath))
}

// Close flushes and closes both the database and the vector store. Idempotent.
func (s *Silo) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	_ = s.vector.Save(vectorSidecarPath(s.dbPath))
	_ = s.vector.Close()
	return s.db.Close()
}

// Path returns the silo's database file path.
func (s *Silo) Path() string { return s.dbPath }
