package rag

import (
	"context"
	"fmt"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Ingestor writes a document into both indices. Vector indexing is
// skipped when no vector index is wired (no embedding credential), which
// leaves retrieval keyword-only rather than broken.
type Ingestor struct {
	Keyword *KeywordIndex
	Vector  *VectorIndex
}

func (in *Ingestor) Ingest(ctx context.Context, doc models.Document) error {
	if in.Keyword == nil {
		return fmt.Errorf("no keyword index configured")
	}
	if err := in.Keyword.Add(doc); err != nil {
		return err
	}
	if in.Vector != nil {
		if err := in.Vector.Add(ctx, doc); err != nil {
			return fmt.Errorf("vector indexing %s: %w", doc.ID, err)
		}
	}
	return nil
}
