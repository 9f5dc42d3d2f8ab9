package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func hits(ids ...string) []models.SearchHit {
	out := make([]models.SearchHit, len(ids))
	for i, id := range ids {
		out[i] = models.SearchHit{
			DocID: id,
			Text:  "text " + id,
			Score: float64(len(ids) - i),
			Rank:  i + 1,
		}
	}
	return out
}

type fakeSource struct {
	hits []models.SearchHit
	err  error
}

func (f *fakeSource) Search(_ context.Context, _ string, k int) ([]models.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

type fakeReranker struct {
	scores map[string]float64
	err    error
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, docs []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(docs))
	for i, d := range docs {
		out[i] = f.scores[d]
	}
	return out, nil
}

func TestRetrieveBothSourcesDownReturnsEmpty(t *testing.T) {
	hr := NewHybridRetriever(
		&fakeSource{err: fmt.Errorf("index gone")},
		&fakeSource{err: fmt.Errorf("embedder gone")},
		nil,
	)

	got := hr.Retrieve(context.Background(), "semiconductor outlook", 5)

	require.NotNil(t, got, "empty evidence is an empty slice, not an error")
	assert.Empty(t, got)
}

func TestRetrieveKeywordOnlyDegrades(t *testing.T) {
	hr := NewHybridRetriever(
		&fakeSource{hits: hits("a", "b", "c")},
		&fakeSource{err: fmt.Errorf("vector down")},
		nil,
	)

	got := hr.Retrieve(context.Background(), "q", 2)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DocID)
	assert.Equal(t, "b", got[1].DocID)
}

func TestRetrieveRerankerReorders(t *testing.T) {
	hr := NewHybridRetriever(
		&fakeSource{hits: hits("a", "b", "c")},
		nil,
		&fakeReranker{scores: map[string]float64{
			"text c": 0.9, "text a": 0.5, "text b": 0.1,
		}},
	)

	got := hr.Retrieve(context.Background(), "q", 3)

	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].DocID)
	assert.True(t, got[0].Reranked)
	assert.Equal(t, 0.9, got[0].RerankScore)
}

func TestRetrieveRerankerFailureKeepsFusedOrder(t *testing.T) {
	hr := NewHybridRetriever(
		&fakeSource{hits: hits("a", "b", "c")},
		nil,
		&fakeReranker{err: fmt.Errorf("503")},
	)

	got := hr.Retrieve(context.Background(), "q", 3)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].DocID)
	assert.False(t, got[0].Reranked)
}

type truncatingReranker struct{}

func (truncatingReranker) Rerank(_ context.Context, _ string, docs []string) ([]float64, error) {
	return make([]float64, len(docs)/2), nil
}

func TestRetrieveRerankerShortResponseKeepsFusedOrder(t *testing.T) {
	hr := NewHybridRetriever(
		&fakeSource{hits: hits("a", "b", "c")},
		nil,
		truncatingReranker{},
	)

	got := hr.Retrieve(context.Background(), "q", 3)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].DocID)
	assert.False(t, got[0].Reranked)
}

func TestRetrieveCapsAtK(t *testing.T) {
	hr := NewHybridRetriever(
		&fakeSource{hits: hits("a", "b", "c", "d", "e")},
		&fakeSource{hits: hits("d", "e", "f")},
		nil,
	)

	got := hr.Retrieve(context.Background(), "q", 3)
	assert.Len(t, got, 3)
}

func TestKeywordIndexRoundTrip(t *testing.T) {
	ki, err := OpenKeywordIndex("")
	require.NoError(t, err)
	defer ki.Close()

	require.NoError(t, ki.Add(models.Document{ID: "r1", Text: "Samsung Electronics HBM memory roadmap"}))
	require.NoError(t, ki.Add(models.Document{ID: "r2", Text: "Retail sales slowed in Q2"}))

	got, err := ki.Search(context.Background(), "HBM memory", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "r1", got[0].DocID)
	assert.Equal(t, 1, got[0].Rank)
}

type fixedEmbedder struct {
	vecs map[string][]float64
}

func (f *fixedEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := f.vecs[t]
		if !ok {
			v = []float64{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func TestVectorIndexCosineOrder(t *testing.T) {
	emb := &fixedEmbedder{vecs: map[string][]float64{
		"close": {1, 0, 0},
		"far":   {0, 1, 0},
		"query": {0.9, 0.1, 0},
	}}
	vi, err := OpenVectorIndex("", emb)
	require.NoError(t, err)

	require.NoError(t, vi.Add(context.Background(), models.Document{ID: "d1", Text: "close"}))
	require.NoError(t, vi.Add(context.Background(), models.Document{ID: "d2", Text: "far"}))

	got, err := vi.Search(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].DocID)
}
