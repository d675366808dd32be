package embed

// ModelInfo describes one entry in the embedding model registry: a bundled
// local model or a model expected to be served by an external HTTP endpoint.
type ModelInfo struct {
	ID              string // registry key, e.g. "static-small"
	DisplayName     string
	UpstreamModelID string // upstream model this entry approximates or proxies
	Dimensions      int
	MaxTokens       int
	ChunkSizeBudget int // target maxChunkTokens for content embedded with this model
	QueryPrefix     string
	DocumentPrefix  string
	Bundled         bool
	Quantization    string
}

// Registry is a static lookup table of known embedding models.
type Registry struct {
	models map[string]ModelInfo
	order  []string
}

// DefaultRegistry returns the registry carrying the two required bundled
// models plus well-known HTTP-served model identifiers used to size a
// registered remote model's chunk budget before the first round trip.
func DefaultRegistry() *Registry {
	r := &Registry{models: make(map[string]ModelInfo)}
	r.add(ModelInfo{
		ID:              "static-small",
		DisplayName:     "Static (small, bundled)",
		UpstreamModelID: "static-small",
		Dimensions:      384,
		MaxTokens:       512,
		ChunkSizeBudget: DefaultMaxChunkTokensFor(384),
		QueryPrefix:     "search_query: ",
		DocumentPrefix:  "search_document: ",
		Bundled:         true,
		Quantization:    "none",
	})
	r.add(ModelInfo{
		ID:              "static-large",
		DisplayName:     "Static (large, bundled)",
		UpstreamModelID: "static-large",
		Dimensions:      768,
		MaxTokens:       2048,
		ChunkSizeBudget: DefaultMaxChunkTokensFor(768),
		QueryPrefix:     "search_query: ",
		DocumentPrefix:  "search_document: ",
		Bundled:         true,
		Quantization:    "none",
	})
	r.add(ModelInfo{
		ID:              "embeddinggemma",
		DisplayName:     "EmbeddingGemma (HTTP)",
		UpstreamModelID: "embeddinggemma",
		Dimensions:      768,
		MaxTokens:       2048,
		ChunkSizeBudget: 512,
		QueryPrefix:     "search_query: ",
		DocumentPrefix:  "search_document: ",
		Bundled:         false,
		Quantization:    "q8_0",
	})
	r.add(ModelInfo{
		ID:              "qwen3-embedding",
		DisplayName:     "Qwen3 Embedding (HTTP)",
		UpstreamModelID: "qwen3-embedding:0.6b",
		Dimensions:      1024,
		MaxTokens:       4096,
		ChunkSizeBudget: 512,
		QueryPrefix:     "Instruct: Given a search query, retrieve relevant passages\nQuery: ",
		DocumentPrefix:  "",
		Bundled:         false,
		Quantization:    "q8_0",
	})
	return r
}

func (r *Registry) add(m ModelInfo) {
	r.models[m.ID] = m
	r.order = append(r.order, m.ID)
}

// Get looks up a model entry by id.
func (r *Registry) Get(id string) (ModelInfo, bool) {
	m, ok := r.models[id]
	return m, ok
}

// List returns all registry entries in registration order.
func (r *Registry) List() []ModelInfo {
	out := make([]ModelInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.models[id])
	}
	return out
}

// Bundled returns the registry entries usable without any external server.
func (r *Registry) Bundled() []ModelInfo {
	var out []ModelInfo
	for _, id := range r.order {
		if m := r.models[id]; m.Bundled {
			out = append(out, m)
		}
	}
	return out
}

// DefaultMaxChunkTokensFor picks a chunk-size budget scaled to a model's
// dimensionality: larger embeddings tolerate (and benefit from) more context
// per chunk.
func DefaultMaxChunkTokensFor(dims int) int {
	switch {
	case dims >= 768:
		return 768
	case dims >= 384:
		return 512
	default:
		return 512
	}
}
