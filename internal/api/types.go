// Package api defines the plain request/response contract types that cross
// the boundary between the silo core and a host process (spec §4.H, §6):
// search, silo administration, the activity stream, and the embedding-
// server probe. No transport is implemented here — these shapes are
// consumed directly by an in-process caller (cmd/siloctl today) and are
// JSON-schema-tagged for shape-compatibility with a future MCP façade,
// grounded on the teacher's github.com/modelcontextprotocol/go-sdk-based
// tool input/output structs, without instantiating that server.
package api

import "time"

// SearchRequest is the search(...) call of spec §4.H.
type SearchRequest struct {
	Query      string         `json:"query" jsonschema:"the search query text"`
	Silo       string         `json:"silo,omitempty" jsonschema:"restrict the search to one silo name; omit to search all silos"`
	MaxResults int            `json:"maxResults,omitempty" jsonschema:"maximum number of files to return"`
	Weights    *SearchWeights `json:"weights,omitempty" jsonschema:"per-signal weight override"`
}

// SearchWeights mirrors search.Weights at the API boundary.
type SearchWeights struct {
	Semantic float64 `json:"semantic"`
	BM25     float64 `json:"bm25"`
	Trigram  float64 `json:"trigram"`
	Filepath float64 `json:"filepath"`
	Tags     float64 `json:"tags"`
}

// SearchResponse wraps the ranked SearchResult list.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is spec §4.H/§6's result record: file path, score,
// matchType, per-chunk breakdown, silo name, raw RRF, best cosine,
// breakdown, and the weights used to compute it.
type SearchResult struct {
	FilePath    string        `json:"filePath"`
	SiloName    string        `json:"siloName"`
	Score       float64       `json:"score"`
	RawRRF      float64       `json:"rawRrf"`
	BestCosine  float64       `json:"bestCosine"`
	MatchType   string        `json:"matchType"`
	Chunks      []ChunkResult `json:"chunks"`
	WeightsUsed SearchWeights `json:"weightsUsed"`
}

// ChunkResult is one chunk contributing to a SearchResult.
type ChunkResult struct {
	SectionPath []string       `json:"sectionPath"`
	Text        string         `json:"text"`
	StartLine   int            `json:"startLine"`
	EndLine     int            `json:"endLine"`
	Score       float64        `json:"score"`
	MatchType   string         `json:"matchType"`
	Cosine      float64        `json:"cosine"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}

// ScoreBreakdown is the fixed five-signal record spec §9 requires
// ("not a dynamic map").
type ScoreBreakdown struct {
	Semantic     float64 `json:"semantic"`
	BM25         float64 `json:"bm25"`
	Trigram      float64 `json:"trigram"`
	Filepath     float64 `json:"filepath"`
	Tags         float64 `json:"tags"`
	HeadingBoost float64 `json:"headingBoost"`
	RRF          float64 `json:"rrf"`
}

// --- Silo admin ---

// SiloSummary describes one silo for a list response.
type SiloSummary struct {
	Name          string    `json:"name"`
	Directories   []string  `json:"directories"`
	State         string    `json:"state"`
	FileCount     int       `json:"fileCount"`
	ChunkCount    int       `json:"chunkCount"`
	DBSizeBytes   int64     `json:"dbSizeBytes"`
	LastUpdate    time.Time `json:"lastUpdate"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	ModelMismatch bool      `json:"modelMismatch"`
	ModelName     string    `json:"modelName"`
	Sleeping      bool      `json:"sleeping"`
	Description   string    `json:"description,omitempty"`
	Color         string    `json:"color,omitempty"`
	Icon          string    `json:"icon,omitempty"`
}

// ListSilosResponse answers the "list" admin call.
type ListSilosResponse struct {
	Silos []SiloSummary `json:"silos"`
}

// CreateSiloRequest answers the "create" admin call.
type CreateSiloRequest struct {
	Name        string   `json:"name" jsonschema:"unique silo name"`
	Directories []string `json:"directories" jsonschema:"absolute source directories to index"`
	DBPath      string   `json:"dbPath,omitempty" jsonschema:"relative path resolved under the user-data directory, or absolute"`
	Extensions  []string `json:"extensions,omitempty"`
	Ignore      []string `json:"ignore,omitempty"`
	IgnoreFiles []string `json:"ignoreFiles,omitempty"`
	Model       string   `json:"model,omitempty"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// CreateSiloResponse returns the freshly created silo's summary.
type CreateSiloResponse struct {
	Silo SiloSummary `json:"silo"`
}

// DeleteSiloRequest answers the "delete" admin call.
type DeleteSiloRequest struct {
	Name string `json:"name"`
}

// DisconnectSiloRequest answers the "disconnect" admin call: stop the
// silo and drop it from the running manager without deleting its
// database file.
type DisconnectSiloRequest struct {
	Name string `json:"name"`
}

// RenameSiloRequest answers the "rename" admin call.
type RenameSiloRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// UpdateSiloRequest answers the "update" admin call; zero-value fields
// leave the corresponding setting unchanged.
type UpdateSiloRequest struct {
	Name        string   `json:"name"`
	Directories []string `json:"directories,omitempty"`
	Extensions  []string `json:"extensions,omitempty"`
	Ignore      []string `json:"ignore,omitempty"`
	IgnoreFiles []string `json:"ignoreFiles,omitempty"`
	Sleeping    *bool    `json:"sleeping,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Icon        *string  `json:"icon,omitempty"`
}

// RebuildSiloRequest answers the "rebuild" admin call: delete and
// reopen a silo's database, then run a full reconcile.
type RebuildSiloRequest struct {
	Name string `json:"name"`
}

// --- Activity stream ---

// ActivityEvent is spec §6's activity event record, over the API boundary.
type ActivityEvent struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SiloName     string    `json:"siloName"`
	FilePath     string    `json:"filePath"`
	EventType    string    `json:"eventType"`
	ChunkCount   int       `json:"chunkCount,omitempty"`
	DurationMs   int64     `json:"durationMs,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// PullActivityRequest answers "pull recent N" from spec §4.H.
type PullActivityRequest struct {
	Limit int `json:"limit,omitempty"`
}

// PullActivityResponse returns the requested activity window, newest first.
type PullActivityResponse struct {
	Events []ActivityEvent `json:"events"`
}

// --- Embedding-server probe ---

// CheckConnectionRequest answers `checkConnection(url)` from spec §4.H.
type CheckConnectionRequest struct {
	URL string `json:"url" jsonschema:"base URL of the embedding server, e.g. http://localhost:11434"`
}

// CheckConnectionResponse is non-nil on success; a failed probe returns a
// nil *CheckConnectionResponse ("Failures return null rather than throwing").
type CheckConnectionResponse struct {
	Models []string `json:"models"`
}
