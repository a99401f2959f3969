package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"footech/internal/acoustic"
	"footech/internal/clips"
	"footech/internal/config"
	"footech/internal/correlator"
	"footech/internal/gpu"
	"footech/internal/media"
	"footech/internal/semantic"
	"footech/internal/similarity"
	"footech/internal/transcriber"
	"footech/internal/vocabulary"
)

// LoadConfiguration reads configPath, falling back to CONFIG_PATH and then to the environment
func LoadConfiguration(configPath string) (*config.Configuration, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	var cfg *config.Configuration
	var err error
	if configPath != "" {
		cfg, err = config.NewConfigurationFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.NewConfigurationFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}
	return cfg, nil
}

// DetectorConfigFrom maps configuration onto acoustic detection parameters
func DetectorConfigFrom(cfg *config.Configuration) acoustic.DetectorConfig {
	return acoustic.DetectorConfig{
		TimeInterval:  cfg.GetTimeInterval(),
		MinDuration:   cfg.GetMinDuration(),
		MinSeparation: cfg.GetMinSeparation(),
		K:             cfg.GetThresholdK(),
	}
}

// ScorerConfigFrom maps configuration onto scorer thresholds
func ScorerConfigFrom(cfg *config.Configuration) semantic.ScorerConfig {
	return semantic.ScorerConfig{
		Threshold:          cfg.GetSemanticThreshold(),
		EscalatedThreshold: cfg.GetEscalatedThreshold(),
	}
}

// LoadVocabulary returns the configured vocabulary file, or the built-in one
func LoadVocabulary(cfg *config.Configuration) (vocabulary.Vocabulary, error) {
	path := cfg.GetVocabularyPath()
	if path == "" {
		return vocabulary.Default(), nil
	}
	vocab, err := vocabulary.Load(path)
	if err != nil {
		return vocabulary.Vocabulary{}, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	return vocab, nil
}

// NewSimilarity builds the configured similarity capability
func NewSimilarity(cfg *config.Configuration, logger *zap.Logger) (semantic.Similarity, error) {
	switch provider := cfg.GetSimilarityProvider(); provider {
	case "lexical":
		return similarity.NewLexical(), nil
	case "openai":
		if cfg.GetSimilarityAPIKey() == "" {
			return nil, fmt.Errorf("similarity.api_key is required for the openai provider")
		}
		embedder := similarity.NewOpenAIEmbedder(cfg.GetSimilarityAPIKey(), cfg.GetSimilarityBaseURL(), cfg.GetSimilarityModel())
		return similarity.NewEmbeddingWithLogger(embedder, logger), nil
	default:
		return nil, fmt.Errorf("unknown similarity provider %q", provider)
	}
}

// NewScorer builds a scorer from the configured similarity and vocabulary
func NewScorer(cfg *config.Configuration, logger *zap.Logger) (*semantic.Scorer, error) {
	sim, err := NewSimilarity(cfg, logger)
	if err != nil {
		return nil, err
	}
	vocab, err := LoadVocabulary(cfg)
	if err != nil {
		return nil, err
	}
	return semantic.NewScorerWithLogger(sim, vocab, ScorerConfigFrom(cfg), logger)
}

// NewTranscriber builds the configured transcriber. The whisper model is downloaded when missing.
func NewTranscriber(ctx context.Context, cfg *config.Configuration, detector *gpu.Detector, logger *zap.Logger) (transcriber.Transcriber, error) {
	switch provider := cfg.GetTranscriberProvider(); provider {
	case "file":
		return transcriber.NewFileTranscriberWithLogger(cfg.GetTranscriptPath(), logger), nil
	case "whisper-cli":
		downloader := transcriber.NewModelDownloader(logger, cfg.GetModelsDir())
		modelPath, err := downloader.EnsureModel(ctx, cfg.GetWhisperModelName())
		if err != nil {
			return nil, fmt.Errorf("failed to prepare whisper model: %w", err)
		}
		return transcriber.NewWhisperCLIWithLogger(transcriber.WhisperOptions{
			Binary:    cfg.GetTranscriberBinary(),
			ModelPath: modelPath,
			Language:  cfg.GetLanguage(),
			UseGPU:    detector.Detect().Available,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown transcriber provider %q", provider)
	}
}

// NewExecutor builds the ffmpeg executor
func NewExecutor(cfg *config.Configuration, logger *zap.Logger) *media.Executor {
	return media.NewExecutorWithLogger(cfg.GetFFmpegPath(), cfg.GetFFprobePath(), logger)
}

// NewAssembler builds an assembler whose video codec follows GPU availability when set to auto
func NewAssembler(cfg *config.Configuration, executor *media.Executor, detector *gpu.Detector, logger *zap.Logger) *media.Assembler {
	return media.NewAssemblerWithLogger(executor, media.AssemblerOptions{
		VideoCodec: detector.VideoCodec(cfg.GetVideoCodec()),
		AudioCodec: cfg.GetAudioCodec(),
		KeepClips:  cfg.GetKeepClips(),
	}, logger)
}

// NewCorrelator builds the correlator with the configured tolerance
func NewCorrelator(cfg *config.Configuration, logger *zap.Logger) *correlator.Correlator {
	return correlator.NewCorrelatorWithLogger(cfg.GetCorrelationTolerance(), logger)
}

// NewSelector builds the clip selector with the configured duration
func NewSelector(cfg *config.Configuration, logger *zap.Logger) *clips.Selector {
	return clips.NewSelectorWithLogger(cfg.GetClipDuration(), logger)
}

// downloadsDir is where remote sources are stored
func downloadsDir(cfg *config.Configuration) string {
	return filepath.Join(cfg.GetOutputDir(), "downloads")
}
