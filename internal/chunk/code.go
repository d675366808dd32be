package chunk

import (
	"context"
	"strings"
)

// CodeChunkerOptions configures CodeChunker.
type CodeChunkerOptions struct {
	MaxChunkTokens int
}

// CodeChunker splits source files by AST scope (§4.B): one chunk per
// symbol, top-level or nested (function, method, type, class, constant,
// variable group), with sectionPath set to the scope chain the symbol is nested
// under and oversized symbols handed to the shared splitOversize cascade.
type CodeChunker struct {
	parser    *Parser
	extractor *SymbolExtractor
	registry  *LanguageRegistry
	options   CodeChunkerOptions
}

// NewCodeChunker creates a CodeChunker with default options.
func NewCodeChunker() *CodeChunker {
	return NewCodeChunkerWithOptions(CodeChunkerOptions{})
}

// NewCodeChunkerWithOptions creates a CodeChunker with explicit options.
func NewCodeChunkerWithOptions(opts CodeChunkerOptions) *CodeChunker {
	if opts.MaxChunkTokens == 0 {
		opts.MaxChunkTokens = DefaultMaxChunkTokens
	}
	registry := DefaultRegistry()
	return &CodeChunker{
		parser:    NewParserWithRegistry(registry),
		extractor: NewSymbolExtractorWithRegistry(registry),
		registry:  registry,
		options:   opts,
	}
}

// Close releases the tree-sitter parser.
func (c *CodeChunker) Close() {
	if c.parser != nil {
		c.parser.Close()
	}
}

// SupportedExtensions lists extensions with a registered grammar.
func (c *CodeChunker) SupportedExtensions() []string {
	return c.registry.SupportedExtensions()
}

// Chunk splits a source file into AST-scoped chunks, falling back to plain
// line chunking for unsupported languages or parse failures.
func (c *CodeChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	if len(file.Content) == 0 {
		return nil, nil
	}

	if _, supported := c.registry.GetByName(file.Language); !supported {
		return c.chunkByLines(file)
	}

	tree, err := c.parser.Parse(ctx, file.Content, file.Language)
	if err != nil {
		return c.chunkByLines(file)
	}

	config, _ := c.registry.GetByName(file.Language)
	scoped := findScopedSymbols(tree, config, c.extractor, nil)
	if len(scoped) == 0 {
		return nil, nil
	}

	var chunks []*Chunk
	idx := 0
	for _, sc := range scoped {
		raw := sc.node.GetContent(tree.Source)
		if sc.symbol.DocComment != "" {
			raw = prependDocComment(tree.Source, sc.node, sc.symbol.DocComment)
		}

		for _, text := range splitOversize(raw, c.options.MaxChunkTokens) {
			sectionPath := append(append([]string{}, sc.scope...), sc.symbol.Name)
			chunks = append(chunks, &Chunk{
				ChunkIndex:   idx,
				SectionPath:  sectionPath,
				Text:         text,
				StartLine:    sc.symbol.StartLine,
				EndLine:      sc.symbol.EndLine,
				Metadata:     map[string]string{"symbol_type": string(sc.symbol.Type)},
				ContentHash:  ContentHashOf(text),
				HeadingDepth: 0,
				TagsText:     tagsFromSymbol(sc.symbol),
				ContentType:  ContentTypeCode,
				Language:     file.Language,
			})
			idx++
		}
	}

	return chunks, nil
}

type scopedSymbol struct {
	node   *Node
	symbol *Symbol
	scope  []string
}

// findScopedSymbols walks the AST tracking the enclosing class/type names so
// each discovered symbol's scope chain can be recorded as SectionPath.
func findScopedSymbols(tree *Tree, config *LanguageConfig, extractor *SymbolExtractor, scope []string) []scopedSymbol {
	if config == nil {
		return nil
	}

	symbolTypes := make(map[string]SymbolType)
	for _, t := range config.FunctionTypes {
		symbolTypes[t] = SymbolTypeFunction
	}
	for _, t := range config.MethodTypes {
		symbolTypes[t] = SymbolTypeMethod
	}
	for _, t := range config.ClassTypes {
		symbolTypes[t] = SymbolTypeClass
	}
	for _, t := range config.InterfaceTypes {
		symbolTypes[t] = SymbolTypeInterface
	}
	for _, t := range config.TypeDefTypes {
		symbolTypes[t] = SymbolTypeType
	}
	for _, t := range config.ConstantTypes {
		symbolTypes[t] = SymbolTypeConstant
	}
	for _, t := range config.VariableTypes {
		symbolTypes[t] = SymbolTypeVariable
	}

	classTypeSet := make(map[string]struct{})
	for _, t := range config.ClassTypes {
		classTypeSet[t] = struct{}{}
	}

	var out []scopedSymbol
	var walk func(n *Node, scope []string)
	walk = func(n *Node, scope []string) {
		if n.Type == "lexical_declaration" || n.Type == "variable_declaration" {
			if sym := extractor.extractSpecialSymbol(n, tree.Source, tree.Language); sym != nil {
				out = append(out, scopedSymbol{node: n, symbol: sym, scope: scope})
				return
			}
		}

		if symType, ok := symbolTypes[n.Type]; ok {
			sym := extractor.extractSymbolForChunk(n, tree, symType, tree.Language)
			if sym != nil {
				out = append(out, scopedSymbol{node: n, symbol: sym, scope: scope})
				if _, isClass := classTypeSet[n.Type]; isClass {
					nested := append(append([]string{}, scope...), sym.Name)
					for _, child := range n.Children {
						walk(child, nested)
					}
					return
				}
			}
		}

		for _, child := range n.Children {
			walk(child, scope)
		}
	}
	walk(tree.Root, scope)

	return out
}

func prependDocComment(source []byte, n *Node, docComment string) string {
	lineStart := int(n.StartByte)
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	docLines := strings.Count(docComment, "\n") + 1
	for i := 0; i < docLines && lineStart > 0; i++ {
		lineStart--
		for lineStart > 0 && source[lineStart-1] != '\n' {
			lineStart--
		}
	}
	return string(source[lineStart:n.EndByte])
}

// chunkByLines is the fallback for unsupported languages and parse failures.
func (c *CodeChunker) chunkByLines(file *FileInput) ([]*Chunk, error) {
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var chunks []*Chunk
	lineOffset := 1
	for i, text := range splitOversize(content, c.options.MaxChunkTokens) {
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
			ContentType: ContentTypeCode,
			Language:    file.Language,
		})
		lineOffset = endLine + 1
	}
	return chunks, nil
}
