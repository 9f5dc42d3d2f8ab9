package models

import (
	"time"

	"github.com/LeeDohoun/HQA-Project/consts"
)

// TopicResult is one research topic's outcome: the summarized content plus
// a provenance tag recording which source plan satisfied it.
type TopicResult struct {
	Summary   string    `json:"summary"`
	Source    string    `json:"source"` // consts.SourceIndex | SourceWeb | SourceNone
	FetchedAt time.Time `json:"fetched_at"`
}

func (t TopicResult) Empty() bool {
	return t.Summary == "" || t.Source == consts.SourceNone
}

// ResearchResult is the researcher's output bundle. QualityGrade is derived
// by the quality evaluator before the result leaves the researcher; callers
// never set it directly.
type ResearchResult struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	Topics map[string]TopicResult `json:"topics"` // keyed by consts.Topic*

	QualityGrade string   `json:"quality_grade"` // A | B | C | D
	QualityScore int      `json:"quality_score"` // 0-100
	Warnings     []string `json:"warnings"`

	Timestamp time.Time `json:"timestamp"`
}

func NewResearchResult(subjectID, subjectName string) *ResearchResult {
	return &ResearchResult{
		SubjectID:   subjectID,
		SubjectName: subjectName,
		Topics:      make(map[string]TopicResult, len(consts.Topics)),
		Timestamp:   time.Now(),
	}
}

// Topic returns the result for one topic, zero value when absent.
func (r *ResearchResult) Topic(name string) TopicResult {
	return r.Topics[name]
}

// MissingTopics counts topics that ended up empty.
func (r *ResearchResult) MissingTopics() int {
	n := 0
	for _, topic := range consts.Topics {
		if r.Topic(topic).Empty() {
			n++
		}
	}
	return n
}

// FallbackCount counts topics satisfied by their fallback source rather
// than the primary of their plan.
func (r *ResearchResult) FallbackCount(primaries map[string]string) int {
	n := 0
	for _, topic := range consts.Topics {
		tr := r.Topic(topic)
		if !tr.Empty() && tr.Source != primaries[topic] {
			n++
		}
	}
	return n
}
