package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// VectorSearcher is the vector-index query contract. The query string is
// embedded internally; callers never see raw vectors.
type VectorSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchHit, error)
}

type vecEntry struct {
	DocID string            `json:"doc_id"`
	Vec   []float64         `json:"vec"`
	Text  string            `json:"text"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// VectorIndex stores embedding+document pairs keyed by document id and
// answers queries by cosine similarity. Entries persist as a JSON file
// under dir; small corpora keep everything in memory.
type VectorIndex struct {
	embedder embedding.Embedder
	path     string
	mu       sync.RWMutex
	entries  []vecEntry
}

func OpenVectorIndex(dir string, embedder embedding.Embedder) (*VectorIndex, error) {
	vi := &VectorIndex{embedder: embedder, path: dir}
	if dir != "" {
		if err := vi.load(); err != nil {
			return nil, err
		}
	}
	return vi, nil
}

func (vi *VectorIndex) filePath() string {
	return filepath.Join(vi.path, "vector_index.json")
}

func (vi *VectorIndex) load() error {
	data, err := os.ReadFile(vi.filePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	return json.Unmarshal(data, &vi.entries)
}

func (vi *VectorIndex) persist() error {
	if vi.path == "" {
		return nil
	}
	data, err := json.Marshal(vi.entries)
	if err != nil {
		return err
	}
	return os.WriteFile(vi.filePath(), data, 0644)
}

// Add embeds and stores one document. Re-adding an id replaces it.
func (vi *VectorIndex) Add(ctx context.Context, doc models.Document) error {
	if vi.embedder == nil {
		return fmt.Errorf("vector index has no embedder")
	}
	vecs, err := vi.embedder.EmbedStrings(ctx, []string{doc.Text})
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("embedder returned %d vectors for one input", len(vecs))
	}

	vi.mu.Lock()
	defer vi.mu.Unlock()
	for i := range vi.entries {
		if vi.entries[i].DocID == doc.ID {
			vi.entries[i] = vecEntry{DocID: doc.ID, Vec: vecs[0], Text: doc.Text, Meta: doc.Metadata}
			return vi.persist()
		}
	}
	vi.entries = append(vi.entries, vecEntry{DocID: doc.ID, Vec: vecs[0], Text: doc.Text, Meta: doc.Metadata})
	return vi.persist()
}

// Search embeds the query and returns the k nearest entries by cosine
// similarity.
func (vi *VectorIndex) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	if vi.embedder == nil {
		return nil, fmt.Errorf("vector index has no embedder")
	}
	vecs, err := vi.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qv := vecs[0]

	vi.mu.RLock()
	defer vi.mu.RUnlock()

	type scored struct {
		entry vecEntry
		score float64
	}
	scoreds := make([]scored, 0, len(vi.entries))
	for _, e := range vi.entries {
		scoreds = append(scoreds, scored{entry: e, score: cosine(qv, e.Vec)})
	}
	sort.Slice(scoreds, func(i, j int) bool {
		if scoreds[i].score != scoreds[j].score {
			return scoreds[i].score > scoreds[j].score
		}
		return scoreds[i].entry.DocID < scoreds[j].entry.DocID
	})

	if k > len(scoreds) {
		k = len(scoreds)
	}
	hits := make([]models.SearchHit, 0, k)
	for i := 0; i < k; i++ {
		hits = append(hits, models.SearchHit{
			DocID:   scoreds[i].entry.DocID,
			Text:    scoreds[i].entry.Text,
			Score:   scoreds[i].score,
			Rank:    i + 1,
			Snippet: snippet(scoreds[i].entry.Text),
		})
	}
	return hits, nil
}

func (vi *VectorIndex) Len() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return len(vi.entries)
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
