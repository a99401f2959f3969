package similarity

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder; an empty baseURL uses the OpenAI default
func NewOpenAIEmbedder(apiKey, baseURL, model string, opts ...option.RequestOption) *OpenAIEmbedder {
	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}
}

// Embed returns one float vector per input, ordered as the inputs
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          o.model,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return vectors, nil
}
