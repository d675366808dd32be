package silo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	dims  int
	model string
}

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, f.dims), nil
}
func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}
func (f fixedEmbedder) Dimensions() int   { return f.dims }
func (f fixedEmbedder) ModelName() string { return f.model }
func (f fixedEmbedder) MaxTokens() int    { return 1000 }
func (f fixedEmbedder) Close() error      { return nil }

func newTestManager(t *testing.T) (*Manager, fixedEmbedder) {
	t.Helper()
	return NewManager(), fixedEmbedder{dims: 4, model: "fixed"}
}

func testConfig(t *testing.T, name, dir string) Config {
	t.Helper()
	return Config{
		Name:           name,
		Directories:    []string{dir},
		DBPath:         filepath.Join(t.TempDir(), name+".db"),
		Extensions:     []string{".md"},
		DebounceWindow: 10 * time.Millisecond,
	}
}

func TestOpenReconcileAndStatusReportsIndexedFile(t *testing.T) {
	mgr, embedder := newTestManager(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# T\n\nbody"), 0o644))

	s, err := mgr.Open(testConfig(t, "docs", root), embedder, "query: ", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Disconnect("docs") })

	require.NoError(t, s.Reconcile(context.Background(), nil, nil))

	status := s.Status(context.Background())
	assert.Equal(t, 1, status.FileCount)
	assert.Equal(t, StateReady, status.State)

	recent := mgr.Activity().Recent(10)
	require.NotEmpty(t, recent)
	assert.Equal(t, ActivityIndexed, recent[0].EventType)
}

func TestOpenRejectsDuplicateName(t *testing.T) {
	mgr, embedder := newTestManager(t)
	root := t.TempDir()

	_, err := mgr.Open(testConfig(t, "docs", root), embedder, "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Disconnect("docs") })

	_, err = mgr.Open(testConfig(t, "docs", root), embedder, "", "")
	assert.Error(t, err)
}

func TestDeleteRemovesDatabaseFile(t *testing.T) {
	mgr, embedder := newTestManager(t)
	root := t.TempDir()
	cfg := testConfig(t, "docs", root)

	s, err := mgr.Open(cfg, embedder, "", "")
	require.NoError(t, err)
	dbPath := s.Path()
	require.FileExists(t, dbPath)

	require.NoError(t, mgr.Delete(context.Background(), "docs"))
	assert.NoFileExists(t, dbPath)

	_, ok := mgr.Get("docs")
	assert.False(t, ok)
}

func TestWatcherDrainUpsertsNewFile(t *testing.T) {
	mgr, embedder := newTestManager(t)
	root := t.TempDir()

	s, err := mgr.Open(testConfig(t, "docs", root), embedder, "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Disconnect("docs") })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.StartWatching(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.md"), []byte("# H\n\nbody"), 0o644))

	require.Eventually(t, func() bool {
		status := s.Status(context.Background())
		return status.FileCount == 1
	}, 3*time.Second, 20*time.Millisecond)
}
