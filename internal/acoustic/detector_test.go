package acoustic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func framesFrom(step float64, intensities ...float64) []Frame {
	frames := make([]Frame, len(intensities))
	for i, v := range intensities {
		frames[i] = Frame{Time: float64(i) * step, Intensity: v}
	}
	return frames
}

func TestDetector_Detect(t *testing.T) {
	t.Run("should emit a single event for the sustained run and drop the later one", func(t *testing.T) {
		// Arrange
		detector := NewDetectorWithLogger(DefaultDetectorConfig(), zaptest.NewLogger(t))
		frames := framesFrom(0.5, 1, 1, 50, 52, 1, 1, 1, 60, 1, 1)

		// Act
		result := detector.Detect(frames)

		// Assert
		require.Len(t, result.Events, 1)
		assert.InDelta(t, 1.5, result.Events[0].Timestamp, 0.5)
		assert.Equal(t, 52.0, result.Events[0].Intensity)
		assert.Equal(t, 2, result.Candidates)
		assert.False(t, result.NoSignal)
	})

	t.Run("should sample at the configured interval on a finer series", func(t *testing.T) {
		// Arrange
		intensities := make([]float64, 100)
		for i := range intensities {
			intensities[i] = 1
			if i >= 20 && i <= 60 {
				intensities[i] = 100
			}
		}
		detector := NewDetector(DefaultDetectorConfig())

		// Act
		result := detector.Detect(framesFrom(0.1, intensities...))

		// Assert
		require.Len(t, result.Events, 1)
		assert.Equal(t, 4.0, result.Events[0].Timestamp)
		assert.Equal(t, 100.0, result.Events[0].Intensity)
		assert.Equal(t, 2, result.Candidates)
	})

	t.Run("should keep events that are far enough apart", func(t *testing.T) {
		// Arrange
		config := DefaultDetectorConfig()
		config.MinSeparation = 1
		detector := NewDetector(config)
		frames := framesFrom(0.5, 1, 1, 50, 52, 1, 1, 1, 60, 1, 1)

		// Act
		result := detector.Detect(frames)

		// Assert
		require.Len(t, result.Events, 2)
		assert.Less(t, result.Events[0].Timestamp, result.Events[1].Timestamp)
	})

	t.Run("should return an empty no-signal result for a silent series", func(t *testing.T) {
		// Arrange
		core, logs := observer.New(zapcore.DebugLevel)
		detector := NewDetectorWithLogger(DefaultDetectorConfig(), zap.New(core))

		// Act
		result := detector.Detect(framesFrom(0.5, 0, 0, 0, 0))

		// Assert
		assert.True(t, result.NoSignal)
		assert.Empty(t, result.Events)
		assert.Equal(t, 1, logs.FilterMessage("no positive intensity samples, skipping acoustic detection").Len())
	})

	t.Run("should return an empty result for no frames", func(t *testing.T) {
		// Act
		result := NewDetector(DefaultDetectorConfig()).Detect(nil)

		// Assert
		assert.True(t, result.NoSignal)
		assert.Empty(t, result.Events)
	})

	t.Run("should honour min separation on a long noisy series", func(t *testing.T) {
		// Arrange
		intensities := make([]float64, 200)
		for i := range intensities {
			intensities[i] = float64(10 + (i%4)*2)
		}
		for _, spike := range []int{30, 31, 32, 33, 34, 90, 91, 92, 93, 150, 151, 152, 153} {
			intensities[spike] = 95
		}
		detector := NewDetector(DefaultDetectorConfig())

		// Act
		result := detector.Detect(framesFrom(0.5, intensities...))

		// Assert
		require.NotEmpty(t, result.Events)
		for i, e := range result.Events {
			assert.Equal(t, float64(int(e.Timestamp)), e.Timestamp, "timestamps are whole seconds")
			if i > 0 {
				assert.GreaterOrEqual(t, e.Timestamp-result.Events[i-1].Timestamp, 10.0)
			}
		}
	})
}

func TestEnforceSeparation(t *testing.T) {
	t.Run("should greedily keep events relative to the last kept one", func(t *testing.T) {
		// Arrange
		events := []Event{{Timestamp: 0}, {Timestamp: 5}, {Timestamp: 10}, {Timestamp: 12}, {Timestamp: 25}}

		// Act
		kept := EnforceSeparation(events, 10)

		// Assert
		assert.Equal(t, []Event{{Timestamp: 0}, {Timestamp: 10}, {Timestamp: 25}}, kept)
	})

	t.Run("should keep every pair of events at least min separation apart", func(t *testing.T) {
		// Arrange
		events := []Event{{Timestamp: 1}, {Timestamp: 3}, {Timestamp: 11}, {Timestamp: 20}, {Timestamp: 21}, {Timestamp: 40}}

		// Act
		kept := EnforceSeparation(events, 10)

		// Assert
		for i := 1; i < len(kept); i++ {
			assert.GreaterOrEqual(t, kept[i].Timestamp-kept[i-1].Timestamp, 10.0)
		}
	})

	t.Run("should return an empty slice for no events", func(t *testing.T) {
		assert.Empty(t, EnforceSeparation(nil, 10))
	})
}
