package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// KeywordSearcher is the keyword-index query contract.
type KeywordSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchHit, error)
}

// KeywordIndex is a bleve-backed BM25 index. Document text and metadata
// live in a JSON sidecar next to the index directory; bleve owns ranking.
type KeywordIndex struct {
	index bleve.Index
	path  string
	mu    sync.RWMutex
	docs  map[string]models.Document
}

// OpenKeywordIndex opens or creates the index under dir. An empty dir
// builds an in-memory index, which tests use.
func OpenKeywordIndex(dir string) (*KeywordIndex, error) {
	var (
		index bleve.Index
		err   error
	)
	if dir == "" {
		index, err = bleve.NewMemOnly(bleve.NewIndexMapping())
	} else {
		indexPath := filepath.Join(dir, "keyword.bleve")
		index, err = bleve.Open(indexPath)
		if err != nil {
			index, err = bleve.New(indexPath, bleve.NewIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open keyword index: %w", err)
	}

	ki := &KeywordIndex{
		index: index,
		path:  dir,
		docs:  make(map[string]models.Document),
	}
	if dir != "" {
		ki.loadDocs()
	}
	return ki, nil
}

func (ki *KeywordIndex) docsPath() string {
	return filepath.Join(ki.path, "keyword_docs.json")
}

func (ki *KeywordIndex) loadDocs() {
	data, err := os.ReadFile(ki.docsPath())
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, &ki.docs)
}

func (ki *KeywordIndex) persistDocs() error {
	if ki.path == "" {
		return nil
	}
	data, err := json.Marshal(ki.docs)
	if err != nil {
		return err
	}
	return os.WriteFile(ki.docsPath(), data, 0644)
}

// Add indexes one document.
func (ki *KeywordIndex) Add(doc models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	ki.mu.Lock()
	defer ki.mu.Unlock()

	if err := ki.index.Index(doc.ID, doc.Text); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	ki.docs[doc.ID] = doc
	return ki.persistDocs()
}

// Search returns up to k hits ranked by BM25 score.
func (ki *KeywordIndex) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)

	res, err := ki.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	ki.mu.RLock()
	defer ki.mu.RUnlock()

	hits := make([]models.SearchHit, 0, len(res.Hits))
	for i, hit := range res.Hits {
		doc := ki.docs[hit.ID]
		hits = append(hits, models.SearchHit{
			DocID:   hit.ID,
			Text:    doc.Text,
			Score:   hit.Score,
			Rank:    i + 1,
			Snippet: snippet(doc.Text),
		})
	}
	return hits, nil
}

func (ki *KeywordIndex) Close() error { return ki.index.Close() }

func snippet(s string) string {
	const max = 300
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
