package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeChunkerGoFunctions(t *testing.T) {
	source := `package sample

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

type Greeter struct{}

func (g *Greeter) Greet(name string) string {
	return "hello " + name
}
`
	c := NewCodeChunker()
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "sample.go", Content: []byte(source), Language: "go"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var names []string
	for _, ch := range chunks {
		names = append(names, ch.SectionPath[len(ch.SectionPath)-1])
	}
	assert.Contains(t, names, "Add")
}

func TestCodeChunkerFallsBackForUnknownLanguage(t *testing.T) {
	c := NewCodeChunker()
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "script.sh", Content: []byte("echo hello\necho world\n"), Language: "shell"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, ContentTypeCode, chunks[0].ContentType)
}

func TestCodeChunkerEmptyFile(t *testing.T) {
	c := NewCodeChunker()
	defer c.Close()

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "empty.go", Content: []byte{}, Language: "go"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
