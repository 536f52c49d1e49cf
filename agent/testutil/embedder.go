package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
)

// KeywordEmbedder maps text onto a fixed vocabulary so similarity is predictable.
type KeywordEmbedder struct {
	mu    sync.Mutex
	Vocab []string
	Err   error
	Calls int
}

func NewKeywordEmbedder() *KeywordEmbedder {
	return &KeywordEmbedder{Vocab: []string{
		"drain", "pump", "ice", "maker", "gasket", "leak", "water", "filter", "rack", "wheel",
	}}
}

func (k *KeywordEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	k.mu.Lock()
	k.Calls++
	err := k.Err
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		vec := make([]float64, len(k.Vocab))
		for j, w := range k.Vocab {
			vec[j] = float64(strings.Count(t, w))
		}
		out[i] = vec
	}
	return out, nil
}
