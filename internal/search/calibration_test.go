package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siloindex/siloindex/internal/store"
)

func TestCalibrateSingleSiloUsesRawRRF(t *testing.T) {
	outcomes := []*siloOutcome{
		{
			siloID:     "a",
			meanCosine: 0.9,
			files:      []*FileResult{{SiloID: "a", FilePath: store.StoredKey("x.md"), RRF: 0.4}},
		},
	}
	combined := calibrateAndCombine(outcomes)
	assert.Len(t, combined, 1)
	assert.Equal(t, 0.4, combined[0].Score)
}

func TestCalibrateMultiSiloScalesByMeanCosine(t *testing.T) {
	outcomes := []*siloOutcome{
		{
			siloID:     "strong",
			meanCosine: 0.9,
			files:      []*FileResult{{SiloID: "strong", FilePath: store.StoredKey("a.md"), RRF: 0.4}},
		},
		{
			siloID:     "weak",
			meanCosine: 0.2,
			files:      []*FileResult{{SiloID: "weak", FilePath: store.StoredKey("b.md"), RRF: 0.45}},
		},
	}
	combined := calibrateAndCombine(outcomes)
	assert.Len(t, combined, 2)

	// The weak silo's raw RRF (0.45) edges out strong's (0.4), but after
	// calibration the weak silo's low mean cosine should push it below.
	assert.Equal(t, store.StoredKey("a.md"), combined[0].FilePath)
	assert.InDelta(t, 0.4*0.9, combined[0].Score, 1e-9)
	assert.InDelta(t, 0.45*0.2, combined[1].Score, 1e-9)
}

func TestCalibrateSkipsNilOutcomes(t *testing.T) {
	outcomes := []*siloOutcome{
		nil,
		{siloID: "a", files: []*FileResult{{SiloID: "a", FilePath: store.StoredKey("x"), RRF: 0.1}}},
	}
	combined := calibrateAndCombine(outcomes)
	assert.Len(t, combined, 1)
}
