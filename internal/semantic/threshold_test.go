package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestThreshold(t *testing.T) {
	t.Run("should raise the threshold when similarity runs high", func(t *testing.T) {
		assert.InDelta(t, 0.70, SuggestThreshold([]float64{0.9, 0.88}, 0.65), 1e-9)
	})

	t.Run("should lower the threshold when similarity runs low", func(t *testing.T) {
		assert.InDelta(t, 0.60, SuggestThreshold([]float64{0.3, 0.5}, 0.65), 1e-9)
	})

	t.Run("should keep the threshold for a middling mean", func(t *testing.T) {
		assert.InDelta(t, 0.65, SuggestThreshold([]float64{0.6, 0.7}, 0.65), 1e-9)
	})

	t.Run("should clamp to the allowed range", func(t *testing.T) {
		assert.Equal(t, 0.5, SuggestThreshold([]float64{0.1}, 0.5))
		assert.Equal(t, 1.0, SuggestThreshold([]float64{0.99}, 0.98))
	})

	t.Run("should return the initial threshold without scores", func(t *testing.T) {
		assert.Equal(t, 0.65, SuggestThreshold(nil, 0.65))
	})
}
