package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownChunkerSplitsByHeading(t *testing.T) {
	content := "# Title\n\nIntro text.\n\n## Section One\n\nBody one.\n\n## Section Two\n\nBody two.\n"
	c := NewMarkdownChunker()

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "doc.md", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, []string{"Title"}, chunks[0].SectionPath)
	assert.Equal(t, []string{"Title", "Section One"}, chunks[1].SectionPath)
	assert.Equal(t, []string{"Title", "Section Two"}, chunks[2].SectionPath)
	assert.Equal(t, 2, chunks[1].HeadingDepth)
}

func TestMarkdownChunkerIgnoresHeadingLikeTextInsideFence(t *testing.T) {
	content := "# Real Heading\n\nSome text.\n\n```\n# not a heading\n## also not\n```\n\nMore text.\n"
	c := NewMarkdownChunker()

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "doc.md", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Real Heading"}, chunks[0].SectionPath)
	assert.True(t, strings.Contains(chunks[0].Text, "# not a heading"))
}

func TestMarkdownChunkerExtractsFrontmatter(t *testing.T) {
	content := "---\ntitle: Doc\n---\n\n# Heading\n\nBody.\n"
	c := NewMarkdownChunker()

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "doc.md", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "frontmatter", chunks[0].Metadata["type"])
	assert.Equal(t, []string{"Heading"}, chunks[1].SectionPath)
}

func TestMarkdownChunkerSplitsOversizedSection(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Big\n\n")
	for i := 0; i < 50; i++ {
		b.WriteString("This is a reasonably long paragraph of filler text to push the section over budget.\n\n")
	}
	c := NewMarkdownChunkerWithOptions(MarkdownChunkerOptions{MaxChunkTokens: 50})

	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "doc.md", Content: []byte(b.String())})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.Equal(t, []string{"Big"}, ch.SectionPath)
	}
}

func TestMarkdownChunkerEmptyContent(t *testing.T) {
	c := NewMarkdownChunker()
	chunks, err := c.Chunk(context.Background(), &FileInput{Path: "empty.md", Content: []byte("   \n\n  ")})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
