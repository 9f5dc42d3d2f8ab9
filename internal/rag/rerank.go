package rag

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/LeeDohoun/HQA-Project/internal/config"
)

// Reranker scores (query, document) pairs with a cross-encoder-style
// model. Returned scores align with the input document slice.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]float64, error)
}

// HTTPReranker calls an external rerank service (Jina/Cohere-compatible
// request shape). The retriever treats any error as "reranker
// unavailable" and keeps the fused order.
type HTTPReranker struct {
	client *resty.Client
	url    string
	apiKey string
}

func NewHTTPReranker(cfg *config.Config) *HTTPReranker {
	client := resty.New()
	client.SetTimeout(cfg.SourceTimeout)
	return &HTTPReranker{
		client: client,
		url:    cfg.RerankerURL,
		apiKey: cfg.RerankerAPIKey,
	}
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string) ([]float64, error) {
	if r.url == "" {
		return nil, fmt.Errorf("reranker not configured")
	}

	var parsed rerankResponse
	req := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"query":     query,
			"documents": documents,
		}).
		SetResult(&parsed)
	if r.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := req.Post(r.url)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("rerank service returned %d", resp.StatusCode())
	}

	scores := make([]float64, len(documents))
	for _, res := range parsed.Results {
		if res.Index >= 0 && res.Index < len(scores) {
			scores[res.Index] = res.RelevanceScore
		}
	}
	return scores, nil
}
