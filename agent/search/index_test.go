package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/partselect-assistant/agent/catalog"
	"github.com/tanpawarit/partselect-assistant/agent/testutil"
	openrouterx "github.com/tanpawarit/partselect-assistant/pkg/openrouter"
)

func builtIndex(t *testing.T) *Index {
	t.Helper()
	store := catalog.NewStore(testutil.SQLiteDB(t))
	_, err := store.EnsureSeeded(context.Background())
	require.NoError(t, err)

	ix := NewIndex(testutil.NewKeywordEmbedder())
	require.NoError(t, ix.Build(context.Background(), store))
	return ix
}

func TestBuildIndexesCatalog(t *testing.T) {
	t.Parallel()

	ix := builtIndex(t)
	assert.Equal(t, 10, ix.Count(CollectionProducts))
	assert.Equal(t, 4, ix.Count(CollectionGuides))
	assert.Equal(t, map[string]int{CollectionProducts: 10, CollectionGuides: 4}, ix.Stats())
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	t.Parallel()

	ix := builtIndex(t)
	docs, err := ix.Retrieve(context.Background(), "drain pump", retriever.WithTopK(3))
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.LessOrEqual(t, len(docs), 3)
	assert.Equal(t, "PS11722128", docs[0].ID)
	assert.Equal(t, "PS11722128", docs[0].MetaData["ps_number"])
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Score(), docs[i].Score())
	}
}

func TestRetrieveFiltersByCategory(t *testing.T) {
	t.Parallel()

	ix := builtIndex(t)
	docs, err := ix.Retrieve(context.Background(), "water filter",
		retriever.WithDSLInfo(map[string]any{"category": "dishwasher"}),
		retriever.WithTopK(10),
	)
	require.NoError(t, err)
	for _, d := range docs {
		assert.Equal(t, "dishwasher", d.MetaData["category"])
	}
}

func TestRetrieveGuides(t *testing.T) {
	t.Parallel()

	ix := builtIndex(t)
	docs, err := ix.Retrieve(context.Background(), "ice maker broken",
		retriever.WithIndex(CollectionGuides),
		retriever.WithTopK(1),
	)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ice_maker_not_working", docs[0].ID)
}

func TestRetrieveDoesNotMutateStoredDocs(t *testing.T) {
	t.Parallel()

	ix := NewIndex(testutil.NewKeywordEmbedder())
	doc := &schema.Document{ID: "a", Content: "drain", MetaData: map[string]any{"category": "dishwasher"}}
	require.NoError(t, ix.Upsert(context.Background(), CollectionProducts, []*schema.Document{doc}))

	docs, err := ix.Retrieve(context.Background(), "drain")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	docs[0].MetaData["category"] = "changed"
	_, hasScore := doc.MetaData["_score"]
	assert.False(t, hasScore)
	assert.Equal(t, "dishwasher", doc.MetaData["category"])
}

func TestRetrieveEmptyIndexSkipsEmbedding(t *testing.T) {
	t.Parallel()

	emb := testutil.NewKeywordEmbedder()
	ix := NewIndex(emb)
	docs, err := ix.Retrieve(context.Background(), "drain")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, emb.Calls)
}

func TestEmbedderErrorsSurface(t *testing.T) {
	t.Parallel()

	emb := testutil.NewKeywordEmbedder()
	ix := NewIndex(emb)
	require.NoError(t, ix.Upsert(context.Background(), CollectionProducts, []*schema.Document{{ID: "a", Content: "drain"}}))

	emb.Err = errors.New("quota")
	_, err := ix.Retrieve(context.Background(), "drain")
	require.Error(t, err)
}

func TestOpenAIEmbedder(t *testing.T) {
	t.Parallel()

	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		data := make([]map[string]any, 0, len(body.Input))
		// answer out of order to exercise index placement
		for i := len(body.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(i), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	defer srv.Close()

	client := openrouterx.NewClient(openrouterx.Config{APIKey: "k", BaseURL: srv.URL})
	require.NotNil(t, client)

	emb := NewOpenAIEmbedder(client, "")
	vecs, err := emb.EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbeddingModel, gotModel)
	assert.Equal(t, [][]float64{{0, 1}, {1, 1}}, vecs)
}
