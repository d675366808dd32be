package chunk

import (
	"context"
	"regexp"
	"strings"
)

// MarkdownChunkerOptions configures MarkdownChunker.
type MarkdownChunkerOptions struct {
	MaxChunkTokens int
}

// MarkdownChunker splits markdown by its ATX heading stack (§4.B): every
// heading starts a section that runs to the next heading of any depth, with
// the heading stack as its section path. Text above the first heading is a
// depth-0 section of its own, frontmatter is stripped into its own chunk, and
// oversized sections are handed to the shared splitOversize cascade.
type MarkdownChunker struct {
	options MarkdownChunkerOptions
}

var (
	headerPattern      = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)
	fenceDelimiter     = regexp.MustCompile("^(```|~~~)")
)

// NewMarkdownChunker creates a MarkdownChunker with default options.
func NewMarkdownChunker() *MarkdownChunker {
	return NewMarkdownChunkerWithOptions(MarkdownChunkerOptions{})
}

// NewMarkdownChunkerWithOptions creates a MarkdownChunker with explicit options.
func NewMarkdownChunkerWithOptions(opts MarkdownChunkerOptions) *MarkdownChunker {
	if opts.MaxChunkTokens == 0 {
		opts.MaxChunkTokens = DefaultMaxChunkTokens
	}
	return &MarkdownChunker{options: opts}
}

// SupportedExtensions lists the file extensions this chunker handles.
func (c *MarkdownChunker) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdx"}
}

// Chunk splits a markdown file into heading-delimited chunks.
func (c *MarkdownChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var chunks []*Chunk
	idx := 0
	remaining := content
	lineOffset := 1

	if fm := frontmatterPattern.FindString(remaining); fm != "" {
		text := strings.TrimRight(fm, "\n")
		chunks = append(chunks, &Chunk{
			ChunkIndex:   idx,
			SectionPath:  nil,
			Text:         text,
			StartLine:    1,
			EndLine:      strings.Count(text, "\n") + 1,
			Metadata:     map[string]string{"type": "frontmatter"},
			ContentHash:  ContentHashOf(text),
			HeadingDepth: 0,
			ContentType:  ContentTypeMarkdown,
			Language:     "markdown",
		})
		idx++
		lineOffset += strings.Count(fm, "\n")
		remaining = remaining[len(fm):]
	}

	sections := parseSections(remaining)
	if len(sections) == 0 {
		for _, text := range splitOversize(remaining, c.options.MaxChunkTokens) {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			chunks = append(chunks, &Chunk{
				ChunkIndex:   idx,
				Text:         text,
				StartLine:    lineOffset,
				EndLine:      lineOffset + strings.Count(text, "\n"),
				Metadata:     map[string]string{},
				ContentHash:  ContentHashOf(text),
				HeadingDepth: 0,
				ContentType:  ContentTypeMarkdown,
				Language:     "markdown",
			})
			idx++
		}
		return chunks, nil
	}

	for _, sec := range sections {
		for _, text := range sectionToChunks(sec, c.options.MaxChunkTokens) {
			startLine := lineOffset + sec.startLine
			chunks = append(chunks, &Chunk{
				ChunkIndex:   idx,
				SectionPath:  append([]string{}, sec.path...),
				Text:         text,
				StartLine:    startLine,
				EndLine:      startLine + strings.Count(text, "\n"),
				Metadata:     map[string]string{"section_title": sec.title},
				ContentHash:  ContentHashOf(text),
				HeadingDepth: sec.level,
				TagsText:     sec.title,
				ContentType:  ContentTypeMarkdown,
				Language:     "markdown",
			})
			idx++
		}
	}

	return chunks, nil
}

type mdSection struct {
	level     int
	title     string
	path      []string
	content   string
	startLine int
}

// parseSections walks content line by line, tracking fenced-code-block
// state so a '#' that appears inside a fence is never mistaken for a
// heading.
func parseSections(content string) []*mdSection {
	lines := strings.Split(content, "\n")
	var sections []*mdSection
	headerStack := make([]string, 6)

	var current *mdSection
	var body strings.Builder
	inFence := false
	var fenceMarker string

	flush := func() {
		if current != nil {
			current.content = body.String()
			sections = append(sections, current)
		}
		body.Reset()
	}

	for lineNum, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := fenceDelimiter.FindString(trimmed); m != "" {
			if !inFence {
				inFence = true
				fenceMarker = m
			} else if strings.HasPrefix(trimmed, fenceMarker) {
				inFence = false
			}
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		if !inFence {
			if match := headerPattern.FindStringSubmatch(line); match != nil {
				if current == nil && strings.TrimSpace(body.String()) != "" {
					// Text above the first heading becomes its own depth-0 section.
					sections = append(sections, &mdSection{content: body.String()})
				}
				flush()

				level := len(match[1])
				title := strings.TrimSpace(match[2])

				headerStack[level-1] = title
				for i := level; i < 6; i++ {
					headerStack[i] = ""
				}

				var path []string
				for i := 0; i < level; i++ {
					if headerStack[i] != "" {
						path = append(path, headerStack[i])
					}
				}

				current = &mdSection{level: level, title: title, path: path, startLine: lineNum}
				body.WriteString(line)
				body.WriteString("\n")
				continue
			}
		}

		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

func sectionToChunks(sec *mdSection, maxTokens int) []string {
	content := strings.TrimRight(sec.content, "\n")
	trimmed := strings.TrimSpace(content)
	lines := strings.Split(trimmed, "\n")
	if len(lines) <= 1 && headerPattern.MatchString(trimmed) {
		return nil // header with no body
	}

	if EstimateTokens(content) <= maxTokens {
		return []string{content}
	}
	return splitOversize(content, maxTokens)
}
