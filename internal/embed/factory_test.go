package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryBuildsStaticEmbedderForBundledModel(t *testing.T) {
	f := NewEmbedderFactory()
	e, err := f.New(context.Background(), "static-small", HTTPEmbedConfig{})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 384, e.Dimensions())
}

func TestFactoryWrapsStaticEmbedderWithCache(t *testing.T) {
	f := NewEmbedderFactory()
	e, err := f.New(context.Background(), "static-large", HTTPEmbedConfig{})
	require.NoError(t, err)
	defer e.Close()

	_, ok := e.(*CachedEmbedder)
	assert.True(t, ok, "factory output should be cached")
}

func TestFactoryReturnsErrorForUnreachableHTTPServer(t *testing.T) {
	f := NewEmbedderFactory()
	_, err := f.New(context.Background(), "unknown-model", HTTPEmbedConfig{
		Host:           "http://127.0.0.1:1",
		ConnectTimeout: 1,
	})
	assert.Error(t, err)
}

func TestParseProviderDefaultsToStatic(t *testing.T) {
	assert.Equal(t, ProviderStatic, ParseProvider("nonsense"))
	assert.Equal(t, ProviderHTTP, ParseProvider("http"))
}

func TestIsValidProvider(t *testing.T) {
	assert.True(t, IsValidProvider("static"))
	assert.True(t, IsValidProvider("http"))
	assert.False(t, IsValidProvider("mlx"))
}
