// Package search implements the per-silo and cross-silo hybrid query engine:
// five ranked signals (semantic, BM25, trigram, filepath trigram, tags) fused
// with Reciprocal Rank Fusion, then calibrated across silos by mean cosine
// similarity so multi-silo result lists are comparable.
package search

import (
	"github.com/siloindex/siloindex/internal/store"
)

// Weights assigns a normalized importance to each of the five query signals.
type Weights struct {
	Semantic float64
	BM25     float64
	Trigram  float64
	Filepath float64
	Tags     float64
}

// DefaultWeights is the "balanced" preset.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.35, BM25: 0.25, Trigram: 0.15, Filepath: 0.15, Tags: 0.10}
}

// Named weight presets.
func SemanticWeights() Weights {
	return Weights{Semantic: 0.60, BM25: 0.15, Trigram: 0.10, Filepath: 0.10, Tags: 0.05}
}

func KeywordWeights() Weights {
	return Weights{Semantic: 0.10, BM25: 0.40, Trigram: 0.25, Filepath: 0.15, Tags: 0.10}
}

func CodeWeights() Weights {
	return Weights{Semantic: 0.25, BM25: 0.20, Trigram: 0.30, Filepath: 0.20, Tags: 0.05}
}

// WeightsForPreset resolves a named preset, defaulting to balanced for an
// unrecognized name.
func WeightsForPreset(name string) Weights {
	switch name {
	case "semantic":
		return SemanticWeights()
	case "keyword":
		return KeywordWeights()
	case "code":
		return CodeWeights()
	default:
		return DefaultWeights()
	}
}

const (
	// DefaultMaxResults is the default cap on files returned from a search.
	DefaultMaxResults = 10

	// DefaultRRFConstant is the RRF smoothing constant k.
	DefaultRRFConstant = 60

	// signalFanout is the multiplier applied to maxResults to derive the
	// per-signal chunk limit (spec: "each returning at most maxResults x 5").
	signalFanout = 5

	// minTrigramTermLen is the shortest term kept in the trigram FTS form.
	minTrigramTermLen = 3
)

// Options configures a single Search call.
type Options struct {
	Query      string
	SiloFilter []string // empty means search all silos
	MaxResults int
	Weights    Weights
}

// applyDefaults fills unset fields with spec defaults.
func (o Options) applyDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if (o.Weights == Weights{}) {
		o.Weights = DefaultWeights()
	}
	return o
}

// chunkLimit is the per-signal and post-fusion chunk cap, maxResults x 5.
func (o Options) chunkLimit() int {
	return o.MaxResults * signalFanout
}

// SignalBreakdown records one signal's contribution to a chunk's RRF score,
// retained in full for downstream explanation.
type SignalBreakdown struct {
	Rank         int // 1-based; 0 means the signal did not return this chunk
	Score        float64
	Contribution float64 // this signal's term in the RRF sum
}

// ScoreBreakdown is the full per-chunk signal accounting spec.md's query
// engine requires for explanation UI.
type ScoreBreakdown struct {
	Semantic     SignalBreakdown
	BM25         SignalBreakdown
	Trigram      SignalBreakdown
	Filepath     SignalBreakdown
	Tags         SignalBreakdown
	HeadingBoost float64
	RRF          float64
}

// ChunkResult is one fused, ranked chunk within a silo's result set.
type ChunkResult struct {
	Chunk        *store.Chunk
	MatchedTerms []string
	Breakdown    ScoreBreakdown
}

// MatchType classifies which signal family contributed to a file's match.
type MatchType string

const (
	MatchSemantic MatchType = "semantic"
	MatchKeyword  MatchType = "keyword"
	MatchBoth     MatchType = "both"
)

// FileResult is the file-level aggregate: its best chunk's RRF score (or,
// after cross-silo calibration, that score times the silo's mean cosine
// similarity), its top chunks, and which signal family matched.
type FileResult struct {
	SiloID    string
	FilePath  store.StoredKey
	RRF       float64 // best chunk's raw rrf, pre-calibration
	Score     float64 // final sort key: RRF, or RRF x silo mean cosine
	MatchType MatchType
	Chunks    []*ChunkResult // top 5, sorted by rrf descending
}

// maxChunksPerFile bounds how many chunks each file aggregate retains.
const maxChunksPerFile = 5
