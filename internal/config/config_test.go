package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_Defaults(t *testing.T) {
	t.Run("should expose detector defaults", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Equal(t, 0.5, cfg.GetTimeInterval())
		assert.Equal(t, 2.0, cfg.GetMinDuration())
		assert.Equal(t, 10.0, cfg.GetMinSeparation())
		assert.Equal(t, 2.5, cfg.GetThresholdK())
	})

	t.Run("should expose scoring, correlation and clip defaults", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Equal(t, 0.65, cfg.GetSemanticThreshold())
		assert.Equal(t, 0.75, cfg.GetEscalatedThreshold())
		assert.Equal(t, 12.0, cfg.GetCorrelationTolerance())
		assert.Equal(t, 20.0, cfg.GetClipDuration())
		assert.Equal(t, "lexical", cfg.GetSimilarityProvider())
		assert.Empty(t, cfg.GetVocabularyPath())
	})

	t.Run("should expose media and output defaults", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Equal(t, "ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, "ffprobe", cfg.GetFFprobePath())
		assert.Equal(t, "auto", cfg.GetVideoCodec())
		assert.Equal(t, "aac", cfg.GetAudioCodec())
		assert.Equal(t, "extracted_clip.mp4", cfg.GetFinalName())
		assert.Equal(t, 16000, cfg.GetSampleRate())
		assert.True(t, cfg.GetMergeSentences())
		assert.False(t, cfg.GetDebugMode())
	})

	t.Run("should validate the default configuration", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act
		err := cfg.Validate()

		// Assert
		assert.NoError(t, err)
	})
}

func TestConfiguration_FromFile(t *testing.T) {
	t.Run("should load values from a YAML file", func(t *testing.T) {
		// Arrange
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		content := `detector:
  min_separation: 30
correlator:
  tolerance: 5
clips:
  duration: 30
similarity:
  provider: lexical
`
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 30.0, cfg.GetMinSeparation())
		assert.Equal(t, 5.0, cfg.GetCorrelationTolerance())
		assert.Equal(t, 30.0, cfg.GetClipDuration())
		assert.Equal(t, 0.5, cfg.GetTimeInterval(), "unset keys keep their defaults")
	})

	t.Run("should return error for non-existent config file", func(t *testing.T) {
		// Act
		cfg, err := NewConfigurationFromFile(filepath.Join(t.TempDir(), "missing.yaml"))

		// Assert
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("should return error for invalid config file format", func(t *testing.T) {
		// Arrange
		configFile := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("clips: [unclosed"), 0644))

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestConfiguration_FromEnv(t *testing.T) {
	t.Run("should read prefixed environment variables", func(t *testing.T) {
		// Arrange
		os.Setenv("FOOTECH_CLIPS_DURATION", "25")
		os.Setenv("FOOTECH_SCORER_THRESHOLD", "0.7")
		defer os.Unsetenv("FOOTECH_CLIPS_DURATION")
		defer os.Unsetenv("FOOTECH_SCORER_THRESHOLD")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 25.0, cfg.GetClipDuration())
		assert.Equal(t, 0.7, cfg.GetSemanticThreshold())
	})

	t.Run("should fall back to OPENAI_API_KEY for the embeddings key", func(t *testing.T) {
		// Arrange
		os.Setenv("OPENAI_API_KEY", "sk-test")
		defer os.Unsetenv("OPENAI_API_KEY")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "sk-test", cfg.GetSimilarityAPIKey())
	})

	t.Run("should enable debug mode from DEBUG_MODE", func(t *testing.T) {
		// Arrange
		os.Setenv("DEBUG_MODE", "true")
		defer os.Unsetenv("DEBUG_MODE")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		require.NoError(t, err)
		assert.True(t, cfg.GetDebugMode())
	})
}

func TestConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		value         interface{}
		expectedError string
	}{
		{name: "zero time interval", key: "detector.time_interval", value: 0.0, expectedError: "detector.time_interval must be positive"},
		{name: "negative separation", key: "detector.min_separation", value: -1.0, expectedError: "detector.min_separation cannot be negative"},
		{name: "threshold above one", key: "scorer.threshold", value: 1.5, expectedError: "scorer.threshold must be between 0.0 and 1.0"},
		{name: "escalated below threshold", key: "scorer.escalated_threshold", value: 0.5, expectedError: "scorer.escalated_threshold"},
		{name: "negative tolerance", key: "correlator.tolerance", value: -3.0, expectedError: "correlator.tolerance cannot be negative"},
		{name: "zero clip duration", key: "clips.duration", value: 0.0, expectedError: "clips.duration must be positive"},
		{name: "unknown similarity provider", key: "similarity.provider", value: "magic", expectedError: "unknown similarity.provider"},
		{name: "openai without key", key: "similarity.provider", value: "openai", expectedError: "similarity.api_key is required"},
		{name: "file transcriber without path", key: "transcriber.provider", value: "file", expectedError: "transcriber.transcript_path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := NewConfiguration()
			cfg.Set(tt.key, tt.value)

			// Act
			err := cfg.Validate()

			// Assert
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
