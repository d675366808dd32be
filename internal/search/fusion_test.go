package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadingBoostMapping(t *testing.T) {
	assert.Equal(t, 1.0, headingBoost(0))
	assert.InDelta(t, 1.6, headingBoost(1), 0.0001)
	assert.InDelta(t, 1.1, headingBoost(6), 0.0001)
}

func TestFuseAppliesBoostOnlyToBM25AndTrigram(t *testing.T) {
	in := fusionInput{
		semantic:     newRankedSignal(),
		bm25:         newRankedSignal(),
		trigram:      newRankedSignal(),
		filepath:     newRankedSignal(),
		tags:         newRankedSignal(),
		matchedTerms: map[int64][]string{},
		headingDepth: map[int64]int{1: 1}, // h1, boost 1.6
	}
	in.semantic.rank[1] = 1
	in.bm25.rank[1] = 1
	in.filepath.rank[1] = 1
	in.tags.rank[1] = 1

	w := Weights{Semantic: 0.35, BM25: 0.25, Trigram: 0.15, Filepath: 0.15, Tags: 0.10}
	out := fuse(in, w, 60, 50)

	bd := out[1]
	assert.InDelta(t, 1.6, bd.HeadingBoost, 0.0001)
	assert.InDelta(t, w.Semantic/61, bd.Semantic.Contribution, 1e-9, "semantic contribution must not receive the heading boost")
	assert.InDelta(t, 1.6*w.BM25/61, bd.BM25.Contribution, 1e-9, "bm25 contribution must receive the heading boost")
	assert.InDelta(t, w.Filepath/61, bd.Filepath.Contribution, 1e-9, "filepath contribution must not receive the heading boost")
	assert.InDelta(t, w.Tags/61, bd.Tags.Contribution, 1e-9, "tags contribution must not receive the heading boost")
}

func TestFuseMissingSignalUsesPenaltyRank(t *testing.T) {
	in := fusionInput{
		semantic:     newRankedSignal(),
		bm25:         newRankedSignal(),
		trigram:      newRankedSignal(),
		filepath:     newRankedSignal(),
		tags:         newRankedSignal(),
		matchedTerms: map[int64][]string{},
		headingDepth: map[int64]int{},
	}
	in.semantic.rank[1] = 1 // only semantic signal returned this chunk

	chunkLimit := 10
	out := fuse(in, DefaultWeights(), 60, chunkLimit)

	bd := out[1]
	missingRank := chunkLimit + 1
	w := DefaultWeights()
	assert.InDelta(t, w.BM25/float64(60+missingRank), bd.BM25.Contribution, 1e-9)
	assert.Equal(t, 0, bd.BM25.Rank, "breakdown reports 0 rank for a signal that never returned this chunk")
}

func TestFuseSumsAllFiveContributions(t *testing.T) {
	in := fusionInput{
		semantic:     newRankedSignal(),
		bm25:         newRankedSignal(),
		trigram:      newRankedSignal(),
		filepath:     newRankedSignal(),
		tags:         newRankedSignal(),
		matchedTerms: map[int64][]string{},
		headingDepth: map[int64]int{},
	}
	in.semantic.rank[1] = 1
	in.bm25.rank[1] = 2
	in.trigram.rank[1] = 3
	in.filepath.rank[1] = 4
	in.tags.rank[1] = 5

	w := DefaultWeights()
	out := fuse(in, w, 60, 50)
	bd := out[1]
	expected := w.Semantic/61 + w.BM25/62 + w.Trigram/63 + w.Filepath/64 + w.Tags/65
	assert.InDelta(t, expected, bd.RRF, 1e-9)
}

func TestTopChunkIDsSortsDescendingAndTruncates(t *testing.T) {
	breakdowns := map[int64]*ScoreBreakdown{
		1: {RRF: 0.5},
		2: {RRF: 0.9},
		3: {RRF: 0.1},
	}
	ids := topChunkIDs(breakdowns, 2)
	assert.Equal(t, []int64{2, 1}, ids)
}

func TestTopChunkIDsTiebreaksByID(t *testing.T) {
	breakdowns := map[int64]*ScoreBreakdown{
		5: {RRF: 0.5},
		2: {RRF: 0.5},
	}
	ids := topChunkIDs(breakdowns, 2)
	assert.Equal(t, []int64{2, 5}, ids)
}
