package similarity

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"footech/internal/vocabulary"
)

// batchSize bounds the number of inputs per embeddings request
const batchSize = 256

// Embedder turns texts into vectors, one per input and in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Embedding scores text by cosine similarity of embeddings. Vocabulary embeddings
// are computed once per vocabulary and reused for every segment.
type Embedding struct {
	embedder Embedder
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string][][]float64
}

// NewEmbedding creates an Embedding similarity with a no-op logger
func NewEmbedding(embedder Embedder) *Embedding {
	return NewEmbeddingWithLogger(embedder, zap.NewNop())
}

// NewEmbeddingWithLogger creates an Embedding similarity with a custom logger
func NewEmbeddingWithLogger(embedder Embedder, logger *zap.Logger) *Embedding {
	return &Embedding{
		embedder: embedder,
		logger:   logger,
		cache:    make(map[string][][]float64),
	}
}

// MaxSimilarity returns the highest cosine similarity between text and any phrase, floored at 0
func (e *Embedding) MaxSimilarity(ctx context.Context, text string, vocab vocabulary.Vocabulary) (float64, error) {
	phrases, err := e.vocabularyEmbeddings(ctx, vocab)
	if err != nil {
		return 0, err
	}

	vectors, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return 0, fmt.Errorf("failed to embed segment: %w", err)
	}
	if len(vectors) != 1 {
		return 0, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}

	best := 0.0
	for _, p := range phrases {
		best = math.Max(best, Cosine(vectors[0], p))
	}
	return best, nil
}

func (e *Embedding) vocabularyEmbeddings(ctx context.Context, vocab vocabulary.Vocabulary) ([][]float64, error) {
	key := vocab.Fingerprint()
	e.mu.Lock()
	defer e.mu.Unlock()
	if vectors, ok := e.cache[key]; ok {
		return vectors, nil
	}

	phrases := vocab.Phrases()
	vectors := make([][]float64, 0, len(phrases))
	for start := 0; start < len(phrases); start += batchSize {
		end := start + batchSize
		if end > len(phrases) {
			end = len(phrases)
		}
		batch, err := e.embedder.Embed(ctx, phrases[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed vocabulary: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("expected %d vocabulary embeddings, got %d", end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	e.logger.Info("vocabulary embeddings computed",
		zap.String("vocabulary", vocab.Name()),
		zap.Int("phrases", len(vectors)))
	e.cache[key] = vectors
	return vectors, nil
}

// Cosine returns the cosine similarity of two vectors, 0 when either is zero or they differ in length
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
