// Package similarity provides the text-to-vocabulary similarity capabilities used by the scorer.
package similarity

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"

	"footech/internal/vocabulary"
)

// Lexical scores token overlap between text and vocabulary phrases. It needs no
// model or network and is deterministic, which makes it the offline default.
// The score blends the overlap coefficient (does the text contain the phrase's
// words) with token-set cosine (how much of the text the phrase explains).
type Lexical struct {
	mu    sync.Mutex
	cache map[string][]tokenSet
}

type tokenSet map[string]struct{}

// NewLexical creates a Lexical similarity
func NewLexical() *Lexical {
	return &Lexical{cache: make(map[string][]tokenSet)}
}

// MaxSimilarity returns the best blended token similarity between text and any phrase
func (l *Lexical) MaxSimilarity(ctx context.Context, text string, vocab vocabulary.Vocabulary) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	textTokens := tokenize(text)
	if len(textTokens) == 0 {
		return 0, nil
	}

	best := 0.0
	for _, phrase := range l.phraseTokens(vocab) {
		if len(phrase) == 0 {
			continue
		}
		shared := 0
		for tok := range phrase {
			if _, ok := textTokens[tok]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		overlap := float64(shared) / math.Min(float64(len(phrase)), float64(len(textTokens)))
		cosine := float64(shared) / math.Sqrt(float64(len(phrase))*float64(len(textTokens)))
		best = math.Max(best, (overlap+cosine)/2)
	}
	return best, nil
}

func (l *Lexical) phraseTokens(vocab vocabulary.Vocabulary) []tokenSet {
	key := vocab.Fingerprint()
	l.mu.Lock()
	defer l.mu.Unlock()
	if sets, ok := l.cache[key]; ok {
		return sets
	}
	phrases := vocab.Phrases()
	sets := make([]tokenSet, len(phrases))
	for i, p := range phrases {
		sets[i] = tokenize(p)
	}
	l.cache[key] = sets
	return sets
}

func tokenize(text string) tokenSet {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	set := make(tokenSet, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}
