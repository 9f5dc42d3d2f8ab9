package rag

import (
	"sort"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// rrfK is the reciprocal-rank-fusion constant from the original RRF
// paper; a rank contributes 1/(60+rank).
const rrfK = 60

// FuseRRF merges keyword and vector hit lists by document identity.
// A document absent from one source simply contributes nothing for it.
// Order is by fused score descending, ties broken by document id so the
// fusion is deterministic.
func FuseRRF(keyword, vector []models.SearchHit) []models.RetrievalCandidate {
	byID := make(map[string]*models.RetrievalCandidate)

	for _, h := range keyword {
		c, ok := byID[h.DocID]
		if !ok {
			c = &models.RetrievalCandidate{DocID: h.DocID, Text: h.Text}
			byID[h.DocID] = c
		}
		c.KeywordRank = h.Rank
		c.FusedScore += 1.0 / float64(rrfK+h.Rank)
	}
	for _, h := range vector {
		c, ok := byID[h.DocID]
		if !ok {
			c = &models.RetrievalCandidate{DocID: h.DocID, Text: h.Text}
			byID[h.DocID] = c
		}
		c.VectorRank = h.Rank
		c.FusedScore += 1.0 / float64(rrfK+h.Rank)
	}

	fused := make([]models.RetrievalCandidate, 0, len(byID))
	for _, c := range byID {
		fused = append(fused, *c)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		return fused[i].DocID < fused[j].DocID
	})
	return fused
}
