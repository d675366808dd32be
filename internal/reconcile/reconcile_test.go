package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siloindex/siloindex/internal/store"
)

type fixedEmbedder struct{ dims int }

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
func (f fixedEmbedder) ModelName() string { return "fixed" }
func (f fixedEmbedder) MaxTokens() int    { return 1000 }
func (f fixedEmbedder) Close() error      { return nil }

func newTestReconciler(t *testing.T, root string) (*Reconciler, *store.Silo) {
	t.Helper()
	s, err := store.OpenSilo(filepath.Join(t.TempDir(), "test.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pipeline := NewPipeline(fixedEmbedder{dims: 4})
	t.Cleanup(pipeline.Close)

	return &Reconciler{
		Silo:     s,
		Pipeline: pipeline,
		Opts:     Options{Roots: []RootDir{{Path: root}}},
	}, s
}

func TestRunIndexesNewFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# Title\n\nsome content"), 0o644))

	r, s := newTestReconciler(t, root)

	var phases []Phase
	err := r.Run(context.Background(), nil, func(p Progress) { phases = append(phases, p.Phase) })
	require.NoError(t, err)

	mtimes, err := s.Mtimes(context.Background())
	require.NoError(t, err)
	assert.Len(t, mtimes, 1)
	assert.Contains(t, phases, PhaseIndexing)
	assert.Contains(t, phases, PhaseDone)
}

func TestRunUpdatesChangedFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\noriginal"), 0o644))

	r, s := newTestReconciler(t, root)
	require.NoError(t, r.Run(context.Background(), nil, nil))

	before, err := s.Mtimes(context.Background())
	require.NoError(t, err)
	require.Len(t, before, 1)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nchanged"), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	require.NoError(t, r.Run(context.Background(), nil, nil))

	after, err := s.Mtimes(context.Background())
	require.NoError(t, err)
	require.Len(t, after, 1)
	for k, v := range after {
		assert.NotEqual(t, before[k], v)
	}
}

func TestRunRemovesDeletedFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\ncontent"), 0o644))

	r, s := newTestReconciler(t, root)
	require.NoError(t, r.Run(context.Background(), nil, nil))

	require.NoError(t, os.Remove(path))

	var sawRemoving bool
	require.NoError(t, r.Run(context.Background(), nil, func(p Progress) {
		if p.Phase == PhaseRemoving {
			sawRemoving = true
		}
	}))

	mtimes, err := s.Mtimes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mtimes)
	assert.True(t, sawRemoving)
}

func TestRunStopsEarlyWhenRequested(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, string(rune('a'+i))+".md"), []byte("# T\n\nbody"), 0o644))
	}

	r, _ := newTestReconciler(t, root)
	calls := 0
	stop := func() bool {
		calls++
		return calls > 1
	}
	err := r.Run(context.Background(), stop, nil)
	require.NoError(t, err)
}
