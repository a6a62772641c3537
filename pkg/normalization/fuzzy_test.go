package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigramSimilarity(t *testing.T) {
	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, TrigramSimilarity("mleko uht", "mleko uht"))
	})

	t.Run("case insensitive equality", func(t *testing.T) {
		assert.Equal(t, 1.0, TrigramSimilarity("MLEKO", "mleko"))
	})

	t.Run("disjoint strings", func(t *testing.T) {
		assert.Equal(t, 0.0, TrigramSimilarity("mleko", "chleb"))
	})

	t.Run("similar strings score between", func(t *testing.T) {
		score := TrigramSimilarity("mleko uht 3.2%", "mleko uht 2%")
		assert.Greater(t, score, 0.4)
		assert.Less(t, score, 1.0)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, TrigramSimilarity("", ""))
	})

	t.Run("one empty", func(t *testing.T) {
		assert.Equal(t, 0.0, TrigramSimilarity("mleko", ""))
	})

	t.Run("short strings compare as whole grams", func(t *testing.T) {
		assert.Equal(t, 1.0, TrigramSimilarity("ab", "AB"))
		assert.Equal(t, 0.0, TrigramSimilarity("ab", "cd"))
	})

	t.Run("symmetry", func(t *testing.T) {
		a, b := "maslo extra", "maslo ekstra"
		assert.Equal(t, TrigramSimilarity(a, b), TrigramSimilarity(b, a))
	})
}

func TestEffectiveMatchThreshold(t *testing.T) {
	config := DefaultConfig()

	// Below the cutoff the stricter short-name threshold applies.
	assert.Equal(t, config.ShortMatchThreshold, config.EffectiveMatchThreshold("sok"))
	assert.Equal(t, config.MatchThreshold, config.EffectiveMatchThreshold("mleko"))
	assert.Equal(t, config.MatchThreshold, config.EffectiveMatchThreshold("mleko uht 3.2%"))
}
