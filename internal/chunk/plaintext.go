package chunk

import (
	"context"
	"strings"
)

// PlaintextChunker handles any file with no structured extractor: a single
// chunk when it fits the token budget, otherwise the shared oversize
// cascade (§4.B).
type PlaintextChunker struct {
	MaxChunkTokens int
}

// NewPlaintextChunker creates a PlaintextChunker with default options.
func NewPlaintextChunker() *PlaintextChunker {
	return &PlaintextChunker{MaxChunkTokens: DefaultMaxChunkTokens}
}

// SupportedExtensions returns nil: PlaintextChunker is the catch-all used
// when no other chunker claims an extension.
func (c *PlaintextChunker) SupportedExtensions() []string { return nil }

// Chunk splits file content as plain text.
func (c *PlaintextChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	maxTokens := c.MaxChunkTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxChunkTokens
	}

	var chunks []*Chunk
	lineOffset := 1
	for i, text := range splitOversize(content, maxTokens) {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		startLine := lineOffset
		endLine := startLine + strings.Count(text, "\n")
		chunks = append(chunks, &Chunk{
			ChunkIndex:  i,
			Text:        text,
			StartLine:   startLine,
			EndLine:     endLine,
			Metadata:    map[string]string{},
			ContentHash: ContentHashOf(text),
			ContentType: ContentTypeText,
			Language:    file.Language,
		})
		lineOffset = endLine + 1
	}
	return chunks, nil
}
