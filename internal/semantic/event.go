// Package semantic scores commentary segments against a goal vocabulary.
package semantic

import (
	"context"
	"errors"

	"footech/internal/vocabulary"
)

// ErrNoSimilarity is returned when a scorer is built without a similarity capability
var ErrNoSimilarity = errors.New("similarity capability is required")

// ErrEmptyVocabulary is returned when a scorer is built with a vocabulary that has no phrases
var ErrEmptyVocabulary = vocabulary.ErrEmpty

// ErrSimilarityUnavailable is returned when every segment sent to the similarity capability failed
var ErrSimilarityUnavailable = errors.New("similarity capability failed for every segment")

// Similarity returns the highest similarity in [0,1] between text and any vocabulary phrase
type Similarity interface {
	MaxSimilarity(ctx context.Context, text string, vocab vocabulary.Vocabulary) (float64, error)
}

// Event is a transcript segment judged to describe a goal
type Event struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Result carries accepted events and the diagnostics of a scoring pass
type Result struct {
	Events             []Event   `json:"events"`
	Scores             []float64 `json:"scores"`
	MeanSimilarity     float64   `json:"mean_similarity"`
	SuggestedThreshold float64   `json:"suggested_threshold"`
	Skipped            int       `json:"skipped"`
	Negated            int       `json:"negated"`
	Failed             int       `json:"failed"`
	BelowThreshold     int       `json:"below_threshold"`
	AmbiguousKept      int       `json:"ambiguous_kept"`
	AmbiguousRejected  int       `json:"ambiguous_rejected"`
}
