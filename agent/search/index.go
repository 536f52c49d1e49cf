// Package search is the semantic index over product and guide text.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

const (
	CollectionProducts = "products"
	CollectionGuides   = "guides"

	DefaultTopK   = 5
	embedBatchLen = 64
)

var _ retriever.Retriever = (*Index)(nil)

type entry struct {
	doc  *schema.Document
	vec  []float64
	norm float64
}

// Index keeps embedded documents in memory per collection and ranks them by
// cosine similarity. Writes happen at ingestion; lookups take a read lock.
type Index struct {
	embedder embedding.Embedder

	mu          sync.RWMutex
	collections map[string]map[string]entry
}

func NewIndex(embedder embedding.Embedder) *Index {
	return &Index{
		embedder:    embedder,
		collections: make(map[string]map[string]entry),
	}
}

// Upsert embeds the documents' content and stores them under their IDs.
func (ix *Index) Upsert(ctx context.Context, collection string, docs []*schema.Document) error {
	if ix.embedder == nil {
		return fmt.Errorf("search: no embedder configured")
	}
	for start := 0; start < len(docs); start += embedBatchLen {
		end := min(start+embedBatchLen, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}
		vectors, err := ix.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return fmt.Errorf("search: embed %s batch: %w", collection, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("search: embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		ix.mu.Lock()
		coll := ix.collections[collection]
		if coll == nil {
			coll = make(map[string]entry)
			ix.collections[collection] = coll
		}
		for i, d := range batch {
			coll[d.ID] = entry{doc: d, vec: vectors[i], norm: norm(vectors[i])}
		}
		ix.mu.Unlock()
	}
	return nil
}

// Retrieve ranks one collection (retriever.WithIndex, default products)
// against the query. retriever.WithDSLInfo filters on exact metadata values,
// e.g. {"category": "dishwasher"}.
func (ix *Index) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	collection := CollectionProducts
	topK := DefaultTopK
	o := retriever.GetCommonOptions(&retriever.Options{Index: &collection, TopK: &topK}, opts...)
	if o.Index != nil {
		collection = *o.Index
	}
	if o.TopK != nil && *o.TopK > 0 {
		topK = *o.TopK
	}
	embedder := ix.embedder
	if o.Embedding != nil {
		embedder = o.Embedding
	}
	if embedder == nil {
		return nil, fmt.Errorf("search: no embedder configured")
	}

	if ix.Count(collection) == 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	vectors, err := embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("search: embedder returned %d vectors for one query", len(vectors))
	}
	qvec, qnorm := vectors[0], norm(vectors[0])

	ix.mu.RLock()
	hits := make([]*schema.Document, 0, len(ix.collections[collection]))
	for _, e := range ix.collections[collection] {
		if !matches(e.doc.MetaData, o.DSLInfo) {
			continue
		}
		score := cosine(qvec, qnorm, e.vec, e.norm)
		if o.ScoreThreshold != nil && score < *o.ScoreThreshold {
			continue
		}
		hits = append(hits, copyDoc(e.doc).WithScore(score))
	}
	ix.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score() != hits[j].Score() {
			return hits[i].Score() > hits[j].Score()
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (ix *Index) Count(collection string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.collections[collection])
}

func (ix *Index) Stats() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]int, len(ix.collections))
	for name, coll := range ix.collections {
		out[name] = len(coll)
	}
	return out
}

func matches(meta map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		if want == nil {
			continue
		}
		if s, ok := want.(string); ok && s == "" {
			continue
		}
		got, ok := meta[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func copyDoc(d *schema.Document) *schema.Document {
	meta := make(map[string]any, len(d.MetaData)+1)
	for k, v := range d.MetaData {
		meta[k] = v
	}
	return &schema.Document{ID: d.ID, Content: d.Content, MetaData: meta}
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot / (an * bn)
}
