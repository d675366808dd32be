package search

import "sort"

// rankedSignal is a single signal's per-chunk-id rank/score pairs, already
// sorted best-first by whatever produced them.
type rankedSignal struct {
	rank  map[int64]int // chunk id -> 1-based rank
	score map[int64]float64
}

func newRankedSignal() rankedSignal {
	return rankedSignal{rank: make(map[int64]int), score: make(map[int64]float64)}
}

// fusionInput bundles the five signals' results for one silo query, keyed by
// chunk id. headingDepth supplies the boost-eligibility lookup; bm25/trigram
// contributions get the heading-depth boost, the other three do not.
type fusionInput struct {
	semantic     rankedSignal
	bm25         rankedSignal
	trigram      rankedSignal
	filepath     rankedSignal
	tags         rankedSignal
	matchedTerms map[int64][]string
	headingDepth map[int64]int
}

// headingBoost implements spec.md's depth -> boost mapping: depth 0 (no
// heading) gets no boost, h1 (depth 1) boosts the most.
func headingBoost(depth int) float64 {
	if depth <= 0 {
		return 1.0
	}
	return 1.0 + 0.1*float64(7-depth)
}

// fuse combines the five ranked signals via Reciprocal Rank Fusion with
// smoothing constant k, returning every chunk id that appeared in at least
// one signal with its full score breakdown, keyed by chunk id (unordered;
// topChunkIDs does the ranking).
// Missing signals are penalized with rank = chunkLimit+1, per spec.md §4.D.
func fuse(in fusionInput, w Weights, k, chunkLimit int) map[int64]*ScoreBreakdown {
	missingRank := chunkLimit + 1

	ids := make(map[int64]struct{})
	for _, sig := range []rankedSignal{in.semantic, in.bm25, in.trigram, in.filepath, in.tags} {
		for id := range sig.rank {
			ids[id] = struct{}{}
		}
	}

	out := make(map[int64]*ScoreBreakdown, len(ids))
	for id := range ids {
		boost := headingBoost(in.headingDepth[id])

		semRank := rankOrMissing(in.semantic, id, missingRank)
		bm25Rank := rankOrMissing(in.bm25, id, missingRank)
		trigRank := rankOrMissing(in.trigram, id, missingRank)
		pathRank := rankOrMissing(in.filepath, id, missingRank)
		tagsRank := rankOrMissing(in.tags, id, missingRank)

		semContrib := w.Semantic / float64(k+semRank)
		bm25Contrib := boost * w.BM25 / float64(k+bm25Rank)
		trigContrib := boost * w.Trigram / float64(k+trigRank)
		pathContrib := w.Filepath / float64(k+pathRank)
		tagsContrib := w.Tags / float64(k+tagsRank)

		bd := &ScoreBreakdown{
			Semantic:     SignalBreakdown{Rank: in.semantic.rank[id], Score: in.semantic.score[id], Contribution: semContrib},
			BM25:         SignalBreakdown{Rank: in.bm25.rank[id], Score: in.bm25.score[id], Contribution: bm25Contrib},
			Trigram:      SignalBreakdown{Rank: in.trigram.rank[id], Score: in.trigram.score[id], Contribution: trigContrib},
			Filepath:     SignalBreakdown{Rank: in.filepath.rank[id], Score: in.filepath.score[id], Contribution: pathContrib},
			Tags:         SignalBreakdown{Rank: in.tags.rank[id], Score: in.tags.score[id], Contribution: tagsContrib},
			HeadingBoost: boost,
			RRF:          semContrib + bm25Contrib + trigContrib + pathContrib + tagsContrib,
		}
		out[id] = bd
	}
	return out
}

func rankOrMissing(sig rankedSignal, id int64, missing int) int {
	if r, ok := sig.rank[id]; ok {
		return r
	}
	return missing
}

// topChunkIDs returns the chunkLimit highest-RRF ids from a fused breakdown
// map, descending, with ascending numeric id tiebreak for determinism.
func topChunkIDs(breakdowns map[int64]*ScoreBreakdown, chunkLimit int) []int64 {
	ids := make([]int64, 0, len(breakdowns))
	for id := range breakdowns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		bi, bj := breakdowns[ids[i]], breakdowns[ids[j]]
		if bi.RRF != bj.RRF {
			return bi.RRF > bj.RRF
		}
		return ids[i] < ids[j]
	})
	if len(ids) > chunkLimit {
		ids = ids[:chunkLimit]
	}
	return ids
}
