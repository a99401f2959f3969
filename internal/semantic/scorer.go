package semantic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"footech/internal/transcriber"
	"footech/internal/vocabulary"
)

// ScorerConfig holds the similarity thresholds
type ScorerConfig struct {
	// Threshold is the similarity a segment must exceed to be considered at all
	Threshold float64
	// EscalatedThreshold is the similarity from which no literal phrase match is required
	EscalatedThreshold float64
}

// DefaultScorerConfig returns the standard thresholds
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{Threshold: 0.65, EscalatedThreshold: 0.75}
}

// Scorer decides which transcript segments describe a goal
type Scorer struct {
	similarity Similarity
	vocab      vocabulary.Vocabulary
	config     ScorerConfig
	logger     *zap.Logger
}

// NewScorer creates a Scorer with a no-op logger
func NewScorer(similarity Similarity, vocab vocabulary.Vocabulary, config ScorerConfig) (*Scorer, error) {
	return NewScorerWithLogger(similarity, vocab, config, zap.NewNop())
}

// NewScorerWithLogger creates a Scorer with a custom logger. A nil similarity or an
// empty vocabulary is rejected before any scoring happens.
func NewScorerWithLogger(similarity Similarity, vocab vocabulary.Vocabulary, config ScorerConfig, logger *zap.Logger) (*Scorer, error) {
	if similarity == nil {
		return nil, ErrNoSimilarity
	}
	if vocab.Len() == 0 {
		return nil, ErrEmptyVocabulary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		similarity: similarity,
		vocab:      vocab,
		config:     config,
		logger:     logger,
	}, nil
}

// Score filters segments down to goal events. Negated segments never reach the
// similarity capability. Segments scoring between the two thresholds need a literal
// vocabulary phrase in their text. A similarity failure on one segment is logged and
// the segment skipped. When no segment could be scored at all the pass fails with
// ErrSimilarityUnavailable, as does context cancellation.
func (s *Scorer) Score(ctx context.Context, segments []transcriber.Segment) (Result, error) {
	valid, skipped := transcriber.Sanitize(segments, s.logger)
	var lastErr error
	result := Result{
		Events:  []Event{},
		Scores:  make([]float64, 0, len(valid)),
		Skipped: skipped,
	}

	for _, segment := range valid {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if IsNegated(segment.Text) {
			result.Negated++
			s.logger.Debug("segment rejected by negation filter",
				zap.Float64("start", segment.Start),
				zap.String("text", segment.Text))
			continue
		}

		score, err := s.similarity.MaxSimilarity(ctx, segment.Text, s.vocab)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, fmt.Errorf("similarity scoring interrupted: %w", err)
			}
			result.Failed++
			lastErr = err
			s.logger.Warn("similarity scoring failed, skipping segment",
				zap.Float64("start", segment.Start),
				zap.Error(err))
			continue
		}
		result.Scores = append(result.Scores, score)

		accepted := s.resolve(segment, score, &result)
		if accepted {
			result.Events = append(result.Events, Event{
				Start: segment.Start,
				End:   segment.End,
				Text:  segment.Text,
				Score: clamp01(score),
			})
		}
	}

	if result.Failed > 0 && len(result.Scores) == 0 {
		return result, fmt.Errorf("%w: %d segment(s) failed, last error: %w", ErrSimilarityUnavailable, result.Failed, lastErr)
	}

	result.MeanSimilarity = Mean(result.Scores)
	result.SuggestedThreshold = SuggestThreshold(result.Scores, s.config.Threshold)

	s.logger.Info("semantic scoring completed",
		zap.Int("segments", len(segments)),
		zap.Int("events", len(result.Events)),
		zap.Int("negated", result.Negated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Float64("mean_similarity", result.MeanSimilarity),
		zap.Float64("suggested_threshold", result.SuggestedThreshold))

	return result, nil
}

// resolve applies the two-stage threshold rule to one scored segment
func (s *Scorer) resolve(segment transcriber.Segment, score float64, result *Result) bool {
	if score <= s.config.Threshold {
		result.BelowThreshold++
		return false
	}
	if score >= s.config.EscalatedThreshold {
		return true
	}

	phrase, ok := s.vocab.ContainsLiteral(segment.Text)
	if !ok {
		result.AmbiguousRejected++
		s.logger.Debug("ambiguous segment has no literal vocabulary match",
			zap.Float64("start", segment.Start),
			zap.Float64("score", score))
		return false
	}
	result.AmbiguousKept++
	s.logger.Debug("ambiguous segment confirmed by literal match",
		zap.Float64("start", segment.Start),
		zap.Float64("score", score),
		zap.String("phrase", phrase))
	return true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
