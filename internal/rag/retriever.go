package rag

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// HybridRetriever runs keyword and vector search in parallel, fuses the
// two ranked lists with reciprocal rank fusion, and reranks the fused
// shortlist. Either source may be nil or failing; retrieval degrades to
// the surviving source, and with both sources down Retrieve returns an
// empty slice rather than an error.
type HybridRetriever struct {
	keyword KeywordSearcher
	vector  VectorSearcher
	rerank  Reranker

	sourceK       int // candidate pool per source
	rerankN       int // fused shortlist passed to the reranker
	sourceTimeout time.Duration
}

type RetrieverOption func(*HybridRetriever)

func WithSourceK(k int) RetrieverOption {
	return func(hr *HybridRetriever) { hr.sourceK = k }
}

func WithRerankN(n int) RetrieverOption {
	return func(hr *HybridRetriever) { hr.rerankN = n }
}

func WithSourceTimeout(d time.Duration) RetrieverOption {
	return func(hr *HybridRetriever) { hr.sourceTimeout = d }
}

func NewHybridRetriever(keyword KeywordSearcher, vector VectorSearcher, rerank Reranker, opts ...RetrieverOption) *HybridRetriever {
	hr := &HybridRetriever{
		keyword:       keyword,
		vector:        vector,
		rerank:        rerank,
		sourceK:       20,
		rerankN:       20,
		sourceTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hr)
	}
	return hr
}

// Retrieve returns at most k candidates for the query.
func (hr *HybridRetriever) Retrieve(ctx context.Context, query string, k int) []models.RetrievalCandidate {
	if k <= 0 {
		return nil
	}

	var keywordHits, vectorHits []models.SearchHit
	g, gctx := errgroup.WithContext(ctx)

	if hr.keyword != nil {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, hr.sourceTimeout)
			defer cancel()
			hits, err := hr.keyword.Search(sctx, query, hr.sourceK)
			if err != nil {
				logger.Warnf("keyword search degraded: %v", err)
				return nil
			}
			keywordHits = hits
			return nil
		})
	}
	if hr.vector != nil {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, hr.sourceTimeout)
			defer cancel()
			hits, err := hr.vector.Search(sctx, query, hr.sourceK)
			if err != nil {
				logger.Warnf("vector search degraded: %v", err)
				return nil
			}
			vectorHits = hits
			return nil
		})
	}
	_ = g.Wait() // source errors are swallowed above

	fused := FuseRRF(keywordHits, vectorHits)
	if len(fused) == 0 {
		return []models.RetrievalCandidate{}
	}

	shortlist := fused
	if len(shortlist) > hr.rerankN {
		shortlist = shortlist[:hr.rerankN]
	}

	if hr.rerank != nil {
		docs := make([]string, len(shortlist))
		for i, c := range shortlist {
			docs[i] = c.Text
		}
		scores, err := hr.rerank.Rerank(ctx, query, docs)
		if err != nil {
			logger.Warnf("reranker unavailable, keeping fused order: %v", err)
		} else if len(scores) != len(shortlist) {
			logger.Warnf("reranker returned %d scores for %d documents, keeping fused order", len(scores), len(shortlist))
		} else {
			for i := range shortlist {
				shortlist[i].RerankScore = scores[i]
				shortlist[i].Reranked = true
			}
			sort.SliceStable(shortlist, func(i, j int) bool {
				return shortlist[i].RerankScore > shortlist[j].RerankScore
			})
		}
	}

	if len(shortlist) > k {
		shortlist = shortlist[:k]
	}
	return shortlist
}

// Context renders candidates into a prompt context block. Empty input
// yields an empty string; callers handle the no-evidence case themselves.
func Context(candidates []models.RetrievalCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	out := ""
	for i, c := range candidates {
		if i > 0 {
			out += "\n\n"
		}
		out += "[doc " + c.DocID + "] " + c.Text
	}
	return out
}
