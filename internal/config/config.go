package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	bindEnv(v)
	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return &Configuration{viper: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("detector.time_interval", 0.5)
	v.SetDefault("detector.min_duration", 2.0)
	v.SetDefault("detector.min_separation", 10.0)
	v.SetDefault("detector.k", 2.5)

	v.SetDefault("audio.hop_seconds", 0.032)
	v.SetDefault("audio.sample_rate", 16000)

	v.SetDefault("scorer.threshold", 0.65)
	v.SetDefault("scorer.escalated_threshold", 0.75)
	v.SetDefault("scorer.vocabulary_path", "")

	v.SetDefault("similarity.provider", "lexical")
	v.SetDefault("similarity.model", "text-embedding-3-small")
	v.SetDefault("similarity.api_key", "")
	v.SetDefault("similarity.base_url", "")

	v.SetDefault("correlator.tolerance", 12.0)
	v.SetDefault("clips.duration", 20.0)

	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("media.video_codec", "auto")
	v.SetDefault("media.audio_codec", "aac")

	v.SetDefault("transcriber.provider", "whisper-cli")
	v.SetDefault("transcriber.binary", "whisper-cli")
	v.SetDefault("transcriber.model_name", "small")
	v.SetDefault("transcriber.models_dir", "./models")
	v.SetDefault("transcriber.language", "en")
	v.SetDefault("transcriber.merge_sentences", true)
	v.SetDefault("transcriber.max_sentence_seconds", 30.0)
	v.SetDefault("transcriber.transcript_path", "")

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.keep_clips", false)
	v.SetDefault("output.final_name", "extracted_clip.mp4")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", "./output/history.db")

	v.SetDefault("fetch.max_retries", 5)
	v.SetDefault("fetch.base_backoff_ms", 1000)

	v.SetDefault("log.debug", false)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("FOOTECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names used by the tools we shell out to
	v.BindEnv("similarity.api_key", "FOOTECH_SIMILARITY_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("similarity.base_url", "FOOTECH_SIMILARITY_BASE_URL", "OPENAI_BASE_URL")
	v.BindEnv("log.debug", "FOOTECH_LOG_DEBUG", "DEBUG_MODE")
}

// Set overrides a single key, used by command-line flags
func (c *Configuration) Set(key string, value interface{}) {
	c.viper.Set(key, value)
}

// GetTimeInterval returns the detector sampling interval in seconds
func (c *Configuration) GetTimeInterval() float64 {
	return c.viper.GetFloat64("detector.time_interval")
}

// GetMinDuration returns the minimum sustained-loudness duration in seconds
func (c *Configuration) GetMinDuration() float64 {
	return c.viper.GetFloat64("detector.min_duration")
}

// GetMinSeparation returns the minimum gap between acoustic events in seconds
func (c *Configuration) GetMinSeparation() float64 {
	return c.viper.GetFloat64("detector.min_separation")
}

// GetThresholdK returns the base IQR multiplier of the dynamic threshold
func (c *Configuration) GetThresholdK() float64 {
	return c.viper.GetFloat64("detector.k")
}

// GetHopSeconds returns the intensity frame hop in seconds
func (c *Configuration) GetHopSeconds() float64 {
	return c.viper.GetFloat64("audio.hop_seconds")
}

// GetSampleRate returns the sample rate used when extracting audio
func (c *Configuration) GetSampleRate() int {
	return c.viper.GetInt("audio.sample_rate")
}

// GetSemanticThreshold returns the minimum similarity for a semantic event
func (c *Configuration) GetSemanticThreshold() float64 {
	return c.viper.GetFloat64("scorer.threshold")
}

// GetEscalatedThreshold returns the similarity above which no literal match is needed
func (c *Configuration) GetEscalatedThreshold() float64 {
	return c.viper.GetFloat64("scorer.escalated_threshold")
}

// GetVocabularyPath returns the vocabulary file path; empty means the built-in vocabulary
func (c *Configuration) GetVocabularyPath() string {
	return c.viper.GetString("scorer.vocabulary_path")
}

// GetSimilarityProvider returns "lexical" or "openai"
func (c *Configuration) GetSimilarityProvider() string {
	return strings.ToLower(c.viper.GetString("similarity.provider"))
}

// GetSimilarityModel returns the embedding model name
func (c *Configuration) GetSimilarityModel() string {
	return c.viper.GetString("similarity.model")
}

// GetSimilarityAPIKey returns the embeddings API key
func (c *Configuration) GetSimilarityAPIKey() string {
	return c.viper.GetString("similarity.api_key")
}

// GetSimilarityBaseURL returns the embeddings API base URL override
func (c *Configuration) GetSimilarityBaseURL() string {
	return c.viper.GetString("similarity.base_url")
}

// GetCorrelationTolerance returns the correlation tolerance in seconds
func (c *Configuration) GetCorrelationTolerance() float64 {
	return c.viper.GetFloat64("correlator.tolerance")
}

// GetClipDuration returns the fixed clip length in seconds
func (c *Configuration) GetClipDuration() float64 {
	return c.viper.GetFloat64("clips.duration")
}

// GetFFmpegPath returns the ffmpeg binary path
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("media.ffmpeg_path")
}

// GetFFprobePath returns the ffprobe binary path
func (c *Configuration) GetFFprobePath() string {
	return c.viper.GetString("media.ffprobe_path")
}

// GetVideoCodec returns the video codec, or "auto" to choose by GPU availability
func (c *Configuration) GetVideoCodec() string {
	return c.viper.GetString("media.video_codec")
}

// GetAudioCodec returns the audio codec used for clips
func (c *Configuration) GetAudioCodec() string {
	return c.viper.GetString("media.audio_codec")
}

// GetTranscriberProvider returns "whisper-cli" or "file"
func (c *Configuration) GetTranscriberProvider() string {
	return strings.ToLower(c.viper.GetString("transcriber.provider"))
}

// GetTranscriberBinary returns the whisper.cpp CLI binary
func (c *Configuration) GetTranscriberBinary() string {
	return c.viper.GetString("transcriber.binary")
}

// GetWhisperModelName returns the whisper model name, e.g. "small"
func (c *Configuration) GetWhisperModelName() string {
	return c.viper.GetString("transcriber.model_name")
}

// GetModelsDir returns the directory holding whisper models
func (c *Configuration) GetModelsDir() string {
	return c.viper.GetString("transcriber.models_dir")
}

// GetLanguage returns the transcription language
func (c *Configuration) GetLanguage() string {
	return c.viper.GetString("transcriber.language")
}

// GetMergeSentences reports whether raw segments are merged into sentences
func (c *Configuration) GetMergeSentences() bool {
	return c.viper.GetBool("transcriber.merge_sentences")
}

// GetMaxSentenceSeconds returns the longest span a merged sentence may cover
func (c *Configuration) GetMaxSentenceSeconds() float64 {
	return c.viper.GetFloat64("transcriber.max_sentence_seconds")
}

// GetTranscriptPath returns an existing transcript file to use instead of transcribing
func (c *Configuration) GetTranscriptPath() string {
	return c.viper.GetString("transcriber.transcript_path")
}

// GetOutputDir returns the root directory for run artifacts
func (c *Configuration) GetOutputDir() string {
	return c.viper.GetString("output.dir")
}

// GetKeepClips reports whether per-window clips survive concatenation
func (c *Configuration) GetKeepClips() bool {
	return c.viper.GetBool("output.keep_clips")
}

// GetFinalName returns the file name of the concatenated highlight
func (c *Configuration) GetFinalName() string {
	return c.viper.GetString("output.final_name")
}

// GetHistoryEnabled reports whether runs are recorded in the history database
func (c *Configuration) GetHistoryEnabled() bool {
	return c.viper.GetBool("history.enabled")
}

// GetHistoryDBPath returns the SQLite history path
func (c *Configuration) GetHistoryDBPath() string {
	return c.viper.GetString("history.db_path")
}

// GetFetchMaxRetries returns the download retry budget
func (c *Configuration) GetFetchMaxRetries() int {
	return c.viper.GetInt("fetch.max_retries")
}

// GetFetchBaseBackoffMS returns the base exponential backoff in milliseconds
func (c *Configuration) GetFetchBaseBackoffMS() int {
	return c.viper.GetInt("fetch.base_backoff_ms")
}

// GetDebugMode returns whether debug logging is enabled
func (c *Configuration) GetDebugMode() bool {
	return c.viper.GetBool("log.debug")
}

// Validate checks the configuration for values no stage can work with
func (c *Configuration) Validate() error {
	if c.GetTimeInterval() <= 0 {
		return fmt.Errorf("detector.time_interval must be positive")
	}
	if c.GetMinDuration() <= 0 {
		return fmt.Errorf("detector.min_duration must be positive")
	}
	if c.GetMinSeparation() < 0 {
		return fmt.Errorf("detector.min_separation cannot be negative")
	}
	if c.GetThresholdK() <= 0 {
		return fmt.Errorf("detector.k must be positive")
	}
	if c.GetHopSeconds() <= 0 {
		return fmt.Errorf("audio.hop_seconds must be positive")
	}
	threshold, escalated := c.GetSemanticThreshold(), c.GetEscalatedThreshold()
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("scorer.threshold must be between 0.0 and 1.0")
	}
	if escalated < threshold || escalated > 1 {
		return fmt.Errorf("scorer.escalated_threshold must be between scorer.threshold and 1.0")
	}
	if c.GetCorrelationTolerance() < 0 {
		return fmt.Errorf("correlator.tolerance cannot be negative")
	}
	if c.GetClipDuration() <= 0 {
		return fmt.Errorf("clips.duration must be positive")
	}
	switch c.GetSimilarityProvider() {
	case "lexical":
	case "openai":
		if c.GetSimilarityAPIKey() == "" {
			return fmt.Errorf("similarity.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown similarity.provider %q", c.GetSimilarityProvider())
	}
	switch c.GetTranscriberProvider() {
	case "whisper-cli":
	case "file":
		if c.GetTranscriptPath() == "" {
			return fmt.Errorf("transcriber.transcript_path is required for the file provider")
		}
	default:
		return fmt.Errorf("unknown transcriber.provider %q", c.GetTranscriberProvider())
	}
	return nil
}
