package search

import "sort"

// calibrateAndCombine applies spec.md §4.D's cross-silo calibration: when
// more than one silo contributed results, per-silo RRF scores are not
// directly comparable (every silo's top result scores near its maximum), so
// each file's final score is its rrf times its silo's mean cosine similarity
// across the silo's best vector-matched chunks. A single contributing silo
// uses its raw rrf. Mean, not max, avoids one lucky chunk inflating an
// otherwise weakly relevant silo's standing.
func calibrateAndCombine(outcomes []*siloOutcome) []*FileResult {
	contributing := 0
	for _, out := range outcomes {
		if out != nil && len(out.files) > 0 {
			contributing++
		}
	}
	multiSilo := contributing > 1

	var combined []*FileResult
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		for _, f := range out.files {
			if multiSilo {
				// A silo with no vector-matched chunk has meanCosine 0,
				// which zeroes its files' calibrated score entirely; this
				// is spec's documented behavior, not a bug to work around.
				f.Score = f.RRF * out.meanCosine
			} else {
				f.Score = f.RRF
			}
			combined = append(combined, f)
		}
	}

	sort.Slice(combined, func(i, j int) bool {
		if combined[i].Score != combined[j].Score {
			return combined[i].Score > combined[j].Score
		}
		return combined[i].FilePath < combined[j].FilePath
	})
	return combined
}
