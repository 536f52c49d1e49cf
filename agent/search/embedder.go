package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	openaisdk "github.com/openai/openai-go"
)

const DefaultEmbeddingModel = "text-embedding-3-small"

var _ embedding.Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder adapts the OpenAI embeddings endpoint to eino's Embedder.
type OpenAIEmbedder struct {
	client *openaisdk.Client
	model  string
}

func NewOpenAIEmbedder(client *openaisdk.Client, model string) *OpenAIEmbedder {
	if strings.TrimSpace(model) == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbedder{client: client, model: model}
}

func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if e.client == nil {
		return nil, fmt.Errorf("embedder: client is not configured")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.model
	o := embedding.GetCommonOptions(&embedding.Options{Model: &model}, opts...)
	if o.Model != nil && *o.Model != "" {
		model = *o.Model
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaisdk.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: create embeddings: %w", err)
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("embedder: response index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("embedder: missing vector for input %d", i)
		}
	}
	return out, nil
}
