package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siloindex/siloindex/internal/store"
)

// fixedEmbedder returns a caller-supplied vector for every Embed call,
// letting tests pin the semantic signal to a known chunk.
type fixedEmbedder struct {
	vec []float32
}

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, nil }
func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}
func (f fixedEmbedder) Dimensions() int   { return len(f.vec) }
func (f fixedEmbedder) ModelName() string { return "fixed" }
func (f fixedEmbedder) MaxTokens() int    { return 1000 }
func (f fixedEmbedder) Close() error      { return nil }

func openTestSilo(t *testing.T, dims int) *store.Silo {
	t.Helper()
	s, err := store.OpenSilo(filepath.Join(t.TempDir(), "test.db"), dims)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func upsertChunk(t *testing.T, s *store.Silo, path, text string, depth int, tags string, vec []float32) {
	t.Helper()
	p := &store.PreparedFile{
		Key: store.FormatStoredKey(0, path),
		Chunks: []*store.Chunk{{
			ChunkIndex:   0,
			SectionPath:  []string{"Intro"},
			Text:         text,
			StartLine:    1,
			EndLine:      3,
			Metadata:     map[string]string{},
			ContentHash:  "hash-" + path,
			HeadingDepth: depth,
			TagsText:     tags,
			ContentType:  store.ContentTypeMarkdown,
		}},
		Embeddings: [][]float32{vec},
		MtimeMs:    1,
	}
	require.NoError(t, s.Upsert(context.Background(), p))
}

func TestSearchSiloFusesSemanticAndKeywordSignals(t *testing.T) {
	s := openTestSilo(t, 4)
	upsertChunk(t, s, "docs/overview.md", "overview of the search engine design", 1, "engine search", []float32{1, 0, 0, 0})
	upsertChunk(t, s, "docs/baking.md", "completely unrelated content about baking bread", 0, "baking", []float32{0, 1, 0, 0})

	e := NewEngine()
	si := SiloIndex{ID: "silo1", Store: s, Embedder: fixedEmbedder{vec: []float32{1, 0, 0, 0}}}

	results, err := e.Search(context.Background(), []SiloIndex{si}, Options{Query: "search engine", MaxResults: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, store.StoredKey(store.FormatStoredKey(0, "docs/overview.md")), top.FilePath)
	assert.Equal(t, MatchBoth, top.MatchType)
	assert.Equal(t, top.RRF, top.Score, "single silo search should use raw rrf as score")
}

func TestSearchEmptyQueryIsVectorOnly(t *testing.T) {
	s := openTestSilo(t, 4)
	upsertChunk(t, s, "docs/a.md", "alpha content here", 0, "", []float32{1, 0, 0, 0})

	e := NewEngine()
	si := SiloIndex{ID: "silo1", Store: s, Embedder: fixedEmbedder{vec: []float32{1, 0, 0, 0}}}

	results, err := e.Search(context.Background(), []SiloIndex{si}, Options{Query: "", MaxResults: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, MatchSemantic, results[0].MatchType)
}

func TestSearchSiloFilterRestrictsTargets(t *testing.T) {
	s1 := openTestSilo(t, 4)
	upsertChunk(t, s1, "a.md", "alpha search content", 0, "", []float32{1, 0, 0, 0})
	s2 := openTestSilo(t, 4)
	upsertChunk(t, s2, "b.md", "beta search content", 0, "", []float32{1, 0, 0, 0})

	e := NewEngine()
	silos := []SiloIndex{
		{ID: "one", Store: s1, Embedder: fixedEmbedder{vec: []float32{1, 0, 0, 0}}},
		{ID: "two", Store: s2, Embedder: fixedEmbedder{vec: []float32{1, 0, 0, 0}}},
	}

	results, err := e.Search(context.Background(), silos, Options{Query: "search", MaxResults: 10, SiloFilter: []string{"two"}})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "two", r.SiloID)
	}
}

func TestSearchNoMatchingSiloFilterReturnsEmpty(t *testing.T) {
	s := openTestSilo(t, 4)
	upsertChunk(t, s, "a.md", "alpha", 0, "", []float32{1, 0, 0, 0})

	e := NewEngine()
	si := SiloIndex{ID: "one", Store: s, Embedder: fixedEmbedder{vec: []float32{1, 0, 0, 0}}}

	results, err := e.Search(context.Background(), []SiloIndex{si}, Options{Query: "alpha", SiloFilter: []string{"nonexistent"}})
	require.NoError(t, err)
	assert.Empty(t, results)
}
