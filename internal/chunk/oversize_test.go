package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitOversizeReturnsWholeTextWhenUnderBudget(t *testing.T) {
	text := "short text"
	out := splitOversize(text, 512)
	require.Len(t, out, 1)
	assert.Equal(t, text, out[0])
}

func TestSplitOversizeSplitsByParagraphFirst(t *testing.T) {
	text := strings.Repeat("word ", 40) + "\n\n" + strings.Repeat("other ", 40)
	out := splitOversize(text, 30)
	require.Greater(t, len(out), 1)
	for _, piece := range out {
		assert.LessOrEqual(t, EstimateTokens(piece), 30) // merge never combines pieces past the budget
	}
}

func TestSplitOversizeFallsBackToHardCharSplit(t *testing.T) {
	text := strings.Repeat("x", 10000) // no paragraph/sentence/line boundaries at all
	out := splitOversize(text, 50)
	require.Greater(t, len(out), 1)
	for _, piece := range out {
		assert.LessOrEqual(t, len(piece), 50*TokensPerChar)
	}
}

func TestMergeUndersizedRecombinesSmallPieces(t *testing.T) {
	pieces := []string{"a", "b", "c"}
	out := mergeUndersized(pieces, 512)
	require.Len(t, out, 1)
}
