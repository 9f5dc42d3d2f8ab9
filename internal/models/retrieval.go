package models

// Document is an indexed document chunk, shared by the keyword and vector
// indices.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchHit is one ranked result from a single source.
type SearchHit struct {
	DocID   string  `json:"doc_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"` // 1-based within its source
	Snippet string  `json:"snippet,omitempty"`
}

// RetrievalCandidate is the fused, per-query result record. Ranks of 0
// mean the candidate was absent from that source.
type RetrievalCandidate struct {
	DocID       string  `json:"doc_id"`
	Text        string  `json:"text"`
	KeywordRank int     `json:"keyword_rank"`
	VectorRank  int     `json:"vector_rank"`
	FusedScore  float64 `json:"fused_score"`
	RerankScore float64 `json:"rerank_score"`
	Reranked    bool    `json:"reranked"`
}
