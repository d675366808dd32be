package silo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameMovesSiloUnderNewKey(t *testing.T) {
	mgr, embedder := newTestManager(t)
	root := t.TempDir()

	_, err := mgr.Open(testConfig(t, "docs", root), embedder, "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Disconnect("notes") })

	require.NoError(t, mgr.Rename("docs", "notes"))

	_, ok := mgr.Get("docs")
	assert.False(t, ok)
	renamed, ok := mgr.Get("notes")
	require.True(t, ok)
	assert.Equal(t, "notes", renamed.Name())
}

func TestListReturnsEveryOpenSilo(t *testing.T) {
	mgr, embedder := newTestManager(t)

	_, err := mgr.Open(testConfig(t, "a", t.TempDir()), embedder, "", "")
	require.NoError(t, err)
	_, err = mgr.Open(testConfig(t, "b", t.TempDir()), embedder, "", "")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mgr.Disconnect("a")
		_ = mgr.Disconnect("b")
	})

	assert.Len(t, mgr.List(), 2)
	assert.Len(t, mgr.Indexes(), 2)
}

func TestDisconnectOnUnknownSiloErrors(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Disconnect("missing"))
	assert.Error(t, mgr.Delete(context.Background(), "missing"))
}
