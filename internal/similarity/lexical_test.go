package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footech/internal/vocabulary"
)

func TestLexical_MaxSimilarity(t *testing.T) {
	vocab, err := vocabulary.New("test", []string{"into the back of the net", "what a goal", "equalizer"})
	require.NoError(t, err)
	lexical := NewLexical()
	ctx := context.Background()

	t.Run("should score an exact phrase as 1", func(t *testing.T) {
		score, err := lexical.MaxSimilarity(ctx, "What a goal!", vocab)

		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("should score a contained phrase above the escalated threshold", func(t *testing.T) {
		score, err := lexical.MaxSimilarity(ctx, "and it's into the back of the net", vocab)

		require.NoError(t, err)
		assert.Greater(t, score, 0.75)
	})

	t.Run("should score unrelated text as 0", func(t *testing.T) {
		score, err := lexical.MaxSimilarity(ctx, "throw-in deep in their half", vocab)

		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("should stay within the unit interval", func(t *testing.T) {
		for _, text := range []string{"goal", "the net", "what a", "equalizer equalizer", ""} {
			score, err := lexical.MaxSimilarity(ctx, text, vocab)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	})

	t.Run("should be deterministic", func(t *testing.T) {
		a, _ := lexical.MaxSimilarity(ctx, "what a strike, into the net", vocab)
		b, _ := lexical.MaxSimilarity(ctx, "what a strike, into the net", vocab)

		assert.Equal(t, a, b)
	})
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("He's done it! ¡Golazo! 2-1")

	assert.Contains(t, tokens, "he's")
	assert.Contains(t, tokens, "golazo")
	assert.Contains(t, tokens, "2")
	assert.Len(t, tokens, 6)
}
