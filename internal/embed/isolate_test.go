package embed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolateManagerSharesOneIsolatePerModelID(t *testing.T) {
	var loads int32
	mgr := NewIsolateManager()
	factory := func(context.Context) (Embedder, error) {
		atomic.AddInt32(&loads, 1)
		return NewStaticEmbedder(smallModel()), nil
	}

	a := mgr.Acquire("shared-model", 384, 512, factory)
	b := mgr.Acquire("shared-model", 384, 512, factory)

	_, err := a.Embed(context.Background(), "hello")
	require.NoError(t, err)
	_, err = b.Embed(context.Background(), "world")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "both instances should share one underlying model load")

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

func TestIsolateStopsOnlyAfterLastInstanceCloses(t *testing.T) {
	mgr := NewIsolateManager()
	factory := func(context.Context) (Embedder, error) {
		return NewStaticEmbedder(smallModel()), nil
	}

	a := mgr.Acquire("m", 384, 512, factory)
	b := mgr.Acquire("m", 384, 512, factory)

	require.NoError(t, a.Close())

	// b should still work after a closes.
	_, err := b.Embed(context.Background(), "still alive")
	assert.NoError(t, err)

	require.NoError(t, b.Close())
}

func TestIsolateSerializesConcurrentCalls(t *testing.T) {
	mgr := NewIsolateManager()
	e := mgr.Acquire("concurrent", 384, 512, func(context.Context) (Embedder, error) {
		return NewStaticEmbedder(smallModel()), nil
	})
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Embed(context.Background(), fmt.Sprintf("text %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestIsolateRespawnsAfterFactoryFailure(t *testing.T) {
	var attempt int32
	mgr := NewIsolateManager()
	e := mgr.Acquire("flaky", 384, 512, func(context.Context) (Embedder, error) {
		if atomic.AddInt32(&attempt, 1) <= DefaultMaxRetries {
			return nil, fmt.Errorf("transient failure")
		}
		return NewStaticEmbedder(smallModel()), nil
	})
	defer e.Close()

	_, err := e.Embed(context.Background(), "retry me")
	assert.NoError(t, err)
}
