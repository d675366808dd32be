package api

import (
	"github.com/siloindex/siloindex/internal/search"
	"github.com/siloindex/siloindex/internal/silo"
)

// WeightsFromAPI converts a SearchWeights boundary value into search.Weights,
// falling back to the balanced default when w is nil.
func WeightsFromAPI(w *SearchWeights) search.Weights {
	if w == nil {
		return search.DefaultWeights()
	}
	return search.Weights{Semantic: w.Semantic, BM25: w.BM25, Trigram: w.Trigram, Filepath: w.Filepath, Tags: w.Tags}
}

func weightsToAPI(w search.Weights) SearchWeights {
	return SearchWeights{Semantic: w.Semantic, BM25: w.BM25, Trigram: w.Trigram, Filepath: w.Filepath, Tags: w.Tags}
}

// FileResultsToAPI converts search.Engine's ranked results into the
// over-the-wire SearchResult shape, tagging every result with the weights
// actually used for the call.
func FileResultsToAPI(results []*search.FileResult, weightsUsed search.Weights) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		chunks := make([]ChunkResult, 0, len(r.Chunks))
		for _, c := range r.Chunks {
			chunks = append(chunks, ChunkResult{
				SectionPath: c.Chunk.SectionPath,
				Text:        c.Chunk.Text,
				StartLine:   c.Chunk.StartLine,
				EndLine:     c.Chunk.EndLine,
				Score:       c.Breakdown.RRF,
				MatchType:   string(r.MatchType),
				Cosine:      c.Breakdown.Semantic.Score,
				Breakdown: ScoreBreakdown{
					Semantic:     c.Breakdown.Semantic.Contribution,
					BM25:         c.Breakdown.BM25.Contribution,
					Trigram:      c.Breakdown.Trigram.Contribution,
					Filepath:     c.Breakdown.Filepath.Contribution,
					Tags:         c.Breakdown.Tags.Contribution,
					HeadingBoost: c.Breakdown.HeadingBoost,
					RRF:          c.Breakdown.RRF,
				},
			})
		}
		var bestCosine float64
		for _, c := range chunks {
			if c.Cosine > bestCosine {
				bestCosine = c.Cosine
			}
		}
		out = append(out, SearchResult{
			FilePath:    string(r.FilePath),
			SiloName:    r.SiloID,
			Score:       r.Score,
			RawRRF:      r.RRF,
			BestCosine:  bestCosine,
			MatchType:   string(r.MatchType),
			Chunks:      chunks,
			WeightsUsed: weightsToAPI(weightsUsed),
		})
	}
	return out
}

// SiloSummaryFromStatus builds a SiloSummary from a silo.Status snapshot
// plus the sleeping/description/color/icon fields the status alone does
// not carry (those live in configuration, not runtime state).
func SiloSummaryFromStatus(st silo.Status, directories []string, sleeping bool, description, color, icon string) SiloSummary {
	return SiloSummary{
		Name:          st.Name,
		Directories:   directories,
		State:         string(st.State),
		FileCount:     st.FileCount,
		ChunkCount:    st.ChunkCount,
		DBSizeBytes:   st.DBSizeBytes,
		LastUpdate:    st.LastUpdate,
		ErrorMessage:  st.ErrorMessage,
		ModelMismatch: st.ModelMismatch,
		ModelName:     st.ModelName,
		Sleeping:      sleeping,
		Description:   description,
		Color:         color,
		Icon:          icon,
	}
}

// ActivityEventsFromFeed converts silo.ActivityEvents into the API boundary
// shape for a PullActivityResponse.
func ActivityEventsFromFeed(events []silo.ActivityEvent) []ActivityEvent {
	out := make([]ActivityEvent, 0, len(events))
	for _, e := range events {
		out = append(out, ActivityEvent{
			ID:           e.ID,
			Timestamp:    e.Timestamp,
			SiloName:     e.SiloName,
			FilePath:     e.FilePath,
			EventType:    string(e.EventType),
			ChunkCount:   e.ChunkCount,
			DurationMs:   e.DurationMs,
			ErrorMessage: e.ErrorMessage,
		})
	}
	return out
}
