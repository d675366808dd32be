package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaintextChunkerSingleChunk(t *testing.T) {
	c := NewPlaintextChunker()
	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "notes.txt", Content: []byte("just some notes")})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, ContentTypeText, chunks[0].ContentType)
}

func TestPlaintextChunkerSplitsLargeFile(t *testing.T) {
	c := &PlaintextChunker{MaxChunkTokens: 30}
	content := strings.Repeat("filler text that takes up space ", 100)
	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "big.txt", Content: []byte(content)})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
}

func TestPlaintextChunkerEmpty(t *testing.T) {
	c := NewPlaintextChunker()
	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "empty.txt", Content: []byte("")})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
