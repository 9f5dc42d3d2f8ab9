package llm

import (
	"context"
	"fmt"

	embedopenai "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/LeeDohoun/HQA-Project/internal/config"
)

// NewEmbedder builds the embedding client for the vector index. The
// embedding key falls back to the LLM key in config loading, so this is
// only unavailable when nothing is configured at all.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	if cfg.EmbeddingAPIKey == "" {
		return nil, config.ErrNoCredential
	}
	emb, err := embedopenai.NewEmbedder(ctx, &embedopenai.EmbeddingConfig{
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingBaseURL,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return emb, nil
}
