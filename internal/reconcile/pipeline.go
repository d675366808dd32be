package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/siloindex/siloindex/internal/chunk"
	"github.com/siloindex/siloindex/internal/embed"
	"github.com/siloindex/siloindex/internal/store"
)

// Pipeline turns one file on disk into a store.PreparedFile: read, chunk by
// content type, embed every chunk's text, hand the result to the caller for
// upsert. Grounded on chunk's three Chunker implementations plus whatever
// embed.Embedder the silo was opened with.
type Pipeline struct {
	code      *chunk.CodeChunker
	markdown  *chunk.MarkdownChunker
	plaintext *chunk.PlaintextChunker
	embedder  embed.Embedder

	codeExts map[string]struct{}
	mdExts   map[string]struct{}
}

// NewPipeline builds a Pipeline around embedder, whose Embed/EmbedBatch
// calls are used for every chunk produced.
func NewPipeline(embedder embed.Embedder) *Pipeline {
	code := chunk.NewCodeChunker()
	md := chunk.NewMarkdownChunker()

	codeExts := make(map[string]struct{})
	for _, e := range code.SupportedExtensions() {
		codeExts[strings.ToLower(e)] = struct{}{}
	}
	mdExts := make(map[string]struct{})
	for _, e := range md.SupportedExtensions() {
		mdExts[strings.ToLower(e)] = struct{}{}
	}

	return &Pipeline{
		code:      code,
		markdown:  md,
		plaintext: chunk.NewPlaintextChunker(),
		embedder:  embedder,
		codeExts:  codeExts,
		mdExts:    mdExts,
	}
}

// Close releases the code chunker's tree-sitter parser.
func (p *Pipeline) Close() {
	p.code.Close()
}

func (p *Pipeline) chunkerFor(ext string) chunk.Chunker {
	ext = strings.ToLower(ext)
	if _, ok := p.codeExts[ext]; ok {
		return p.code
	}
	if _, ok := p.mdExts[ext]; ok {
		return p.markdown
	}
	return p.plaintext
}

// PrepareFile reads absPath, chunks it, embeds every chunk, and returns the
// ready-to-upsert PreparedFile for key. documentPrefix is prepended to each
// chunk's text before embedding (the registry's DocumentPrefix, distinct
// from the query-time prefix the search engine applies).
func (p *Pipeline) PrepareFile(ctx context.Context, key store.StoredKey, absPath, relPath string, mtimeMs int64, documentPrefix string) (*store.PreparedFile, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reconcile: read %s: %w", absPath, err)
	}

	ext := filepath.Ext(relPath)
	chunker := p.chunkerFor(ext)

	input := &chunk.FileInput{Path: relPath, Content: content, Language: languageFromExt(ext)}
	chunks, err := chunker.Chunk(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("reconcile: chunk %s: %w", absPath, err)
	}
	if len(chunks) == 0 {
		return &store.PreparedFile{Key: key, MtimeMs: mtimeMs}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = documentPrefix + c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("reconcile: embed %s: %w", absPath, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("reconcile: embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	storeChunks := make([]*store.Chunk, len(chunks))
	for i, c := range chunks {
		storeChunks[i] = &store.Chunk{
			ChunkIndex:   c.ChunkIndex,
			SectionPath:  c.SectionPath,
			Text:         c.Text,
			StartLine:    c.StartLine,
			EndLine:      c.EndLine,
			Metadata:     c.Metadata,
			ContentHash:  c.ContentHash,
			HeadingDepth: c.HeadingDepth,
			TagsText:     c.TagsText,
			ContentType:  store.ContentType(c.ContentType),
			Language:     c.Language,
		}
	}

	return &store.PreparedFile{Key: key, Chunks: storeChunks, Embeddings: vectors, MtimeMs: mtimeMs}, nil
}

func languageFromExt(ext string) string {
	lang, ok := chunk.DefaultRegistry().GetByExtension(ext)
	if !ok {
		return ""
	}
	return lang.Name
}
