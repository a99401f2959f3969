package clips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"footech/internal/correlator"
)

func TestSelector_Select(t *testing.T) {
	selector := NewSelectorWithLogger(DefaultDuration, zaptest.NewLogger(t))

	t.Run("should centre a window on the event", func(t *testing.T) {
		// Act
		result := selector.Select([]correlator.Event{{Center: 95}}, KnownDuration(600))

		// Assert
		assert.Equal(t, []Window{{Start: 85, End: 105}}, result.Windows)
		assert.False(t, result.Degraded)
		assert.Zero(t, result.Dropped)
	})

	t.Run("should keep only the first of two overlapping windows", func(t *testing.T) {
		// Act
		result := selector.Select([]correlator.Event{{Center: 95}, {Center: 100}}, KnownDuration(600))

		// Assert
		assert.Equal(t, []Window{{Start: 85, End: 105}}, result.Windows)
		assert.Equal(t, 1, result.Dropped)
	})

	t.Run("should keep windows that touch end to start", func(t *testing.T) {
		result := selector.Select([]correlator.Event{{Center: 20}, {Center: 40}}, KnownDuration(600))

		assert.Equal(t, []Window{{Start: 10, End: 30}, {Start: 30, End: 50}}, result.Windows)
	})

	t.Run("should clamp the start at zero", func(t *testing.T) {
		result := selector.Select([]correlator.Event{{Center: 3}}, KnownDuration(600))

		assert.Equal(t, []Window{{Start: 0, End: 20}}, result.Windows)
	})

	t.Run("should re-anchor a window that runs past the end of the media", func(t *testing.T) {
		result := selector.Select([]correlator.Event{{Center: 595}}, KnownDuration(600))

		assert.Equal(t, []Window{{Start: 580, End: 600}}, result.Windows)
	})

	t.Run("should keep the fixed duration for media shorter than a clip", func(t *testing.T) {
		result := selector.Select([]correlator.Event{{Center: 8}}, KnownDuration(12))

		require.Len(t, result.Windows, 1)
		assert.Equal(t, Window{Start: 0, End: 20}, result.Windows[0])
		assert.Equal(t, DefaultDuration, result.Windows[0].Duration())
	})

	t.Run("should mark the result degraded when the duration is unknown", func(t *testing.T) {
		// Act
		result := selector.Select([]correlator.Event{{Center: 595}}, UnknownDuration())

		// Assert
		assert.True(t, result.Degraded)
		assert.Equal(t, []Window{{Start: 585, End: 605}}, result.Windows)
	})

	t.Run("should drop overlap created by re-anchoring", func(t *testing.T) {
		result := selector.Select([]correlator.Event{{Center: 585}, {Center: 598}}, KnownDuration(600))

		assert.Equal(t, []Window{{Start: 575, End: 595}}, result.Windows)
		assert.Equal(t, 1, result.Dropped)
	})

	t.Run("should preserve chronological order without overlap", func(t *testing.T) {
		// Arrange
		events := []correlator.Event{{Center: 10}, {Center: 15}, {Center: 31}, {Center: 60}, {Center: 62}, {Center: 200}}

		// Act
		result := selector.Select(events, KnownDuration(210))

		// Assert
		require.NotEmpty(t, result.Windows)
		for i, w := range result.Windows {
			assert.Equal(t, DefaultDuration, w.Duration())
			assert.GreaterOrEqual(t, w.Start, 0.0)
			assert.LessOrEqual(t, w.End, 210.0)
			if i > 0 {
				assert.GreaterOrEqual(t, w.Start, result.Windows[i-1].End)
			}
		}
		assert.Equal(t, len(events), len(result.Windows)+result.Dropped)
	})

	t.Run("should return no windows for no events", func(t *testing.T) {
		result := selector.Select(nil, KnownDuration(600))

		assert.Empty(t, result.Windows)
		assert.False(t, result.Degraded)
	})
}

func TestSelector_UnknownDurationWarning(t *testing.T) {
	// Arrange
	core, logs := observer.New(zap.WarnLevel)
	selector := NewSelectorWithLogger(DefaultDuration, zap.New(core))

	// Act
	selector.Select([]correlator.Event{{Center: 50}}, UnknownDuration())

	// Assert
	assert.Equal(t, 1, logs.Len())
}

func TestNewSelector(t *testing.T) {
	assert.Equal(t, DefaultDuration, NewSelector(0).Duration())
	assert.Equal(t, 30.0, NewSelector(30).Duration())
}

func TestWindow_Name(t *testing.T) {
	assert.Equal(t, "goal_clip_1_85.00-105.00.mp4", Window{Start: 85, End: 105}.Name(1))
	assert.Equal(t, "goal_clip_3_0.50-20.50.mp4", Window{Start: 0.5, End: 20.5}.Name(3))
}
