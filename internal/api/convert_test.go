package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/siloindex/siloindex/internal/search"
	"github.com/siloindex/siloindex/internal/silo"
	"github.com/siloindex/siloindex/internal/store"
)

func TestWeightsFromAPIDefaultsWhenNil(t *testing.T) {
	assert.Equal(t, search.DefaultWeights(), WeightsFromAPI(nil))
}

func TestWeightsFromAPIPassesThroughValues(t *testing.T) {
	w := WeightsFromAPI(&SearchWeights{Semantic: 0.5, BM25: 0.5})
	assert.Equal(t, search.Weights{Semantic: 0.5, BM25: 0.5}, w)
}

func TestFileResultsToAPIConvertsChunksAndBestCosine(t *testing.T) {
	results := []*search.FileResult{
		{
			SiloID:    "docs",
			FilePath:  store.FormatStoredKey(0, "a.md"),
			RRF:       0.03,
			Score:     0.024,
			MatchType: search.MatchBoth,
			Chunks: []*search.ChunkResult{
				{
					Chunk: &store.Chunk{SectionPath: []string{"Intro"}, Text: "hello", StartLine: 1, EndLine: 2},
					Breakdown: search.ScoreBreakdown{
						Semantic: search.SignalBreakdown{Score: 0.8, Contribution: 0.1},
						RRF:      0.03,
					},
				},
			},
		},
	}

	out := FileResultsToAPI(results, search.DefaultWeights())
	assert.Len(t, out, 1)
	assert.Equal(t, "0:a.md", out[0].FilePath)
	assert.Equal(t, "docs", out[0].SiloName)
	assert.Equal(t, 0.8, out[0].BestCosine)
	assert.Len(t, out[0].Chunks, 1)
	assert.Equal(t, []string{"Intro"}, out[0].Chunks[0].SectionPath)
}

func TestSiloSummaryFromStatusCarriesConfigFields(t *testing.T) {
	st := silo.Status{Name: "docs", State: silo.StateReady, FileCount: 3, LastUpdate: time.Unix(0, 0)}
	summary := SiloSummaryFromStatus(st, []string{"/tmp/docs"}, true, "desc", "#fff", "book")

	assert.Equal(t, "docs", summary.Name)
	assert.Equal(t, "ready", summary.State)
	assert.True(t, summary.Sleeping)
	assert.Equal(t, "desc", summary.Description)
}

func TestActivityEventsFromFeedConvertsEventType(t *testing.T) {
	events := []silo.ActivityEvent{{ID: 1, EventType: silo.ActivityIndexed, SiloName: "docs"}}
	out := ActivityEventsFromFeed(events)

	assert.Len(t, out, 1)
	assert.Equal(t, "indexed", out[0].EventType)
}
