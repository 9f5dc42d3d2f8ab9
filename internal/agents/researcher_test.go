package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func someCandidates() []models.RetrievalCandidate {
	return []models.RetrievalCandidate{
		{DocID: "d1", Text: "반도체 업황 보고서 내용"},
		{DocID: "d2", Text: "경쟁사 비교 자료"},
	}
}

func someArticles() []models.NewsArticle {
	return []models.NewsArticle{
		{Title: "실적 발표", Snippet: "영업이익 증가"},
	}
}

func TestResearchAllSourcesHealthyGradesA(t *testing.T) {
	r := NewResearcher(
		&fakeRetriever{candidates: someCandidates()},
		&fakeWeb{articles: someArticles()},
		&fakeLLM{instruct: "요약된 내용"},
	)

	result := r.Research(context.Background(), "005930", "삼성전자")

	assert.Equal(t, "A", result.QualityGrade)
	assert.Equal(t, 0, result.MissingTopics())
	for _, topic := range consts.Topics {
		assert.Equal(t, "요약된 내용", result.Topic(topic).Summary)
	}
	// Plan assignments: document topics from the index, live topics from the web.
	assert.Equal(t, consts.SourceIndex, result.Topic(consts.TopicReport).Source)
	assert.Equal(t, consts.SourceWeb, result.Topic(consts.TopicNews).Source)
}

func TestResearchWebDownFallsBackToIndex(t *testing.T) {
	r := NewResearcher(
		&fakeRetriever{candidates: someCandidates()},
		&fakeWeb{err: errBoom},
		&fakeLLM{instruct: "요약"},
	)

	result := r.Research(context.Background(), "005930", "삼성전자")

	// News and policy fail their web primary but land on the index.
	assert.Equal(t, consts.SourceIndex, result.Topic(consts.TopicNews).Source)
	assert.Equal(t, consts.SourceIndex, result.Topic(consts.TopicPolicy).Source)
	assert.Equal(t, 0, result.MissingTopics())
	assert.Equal(t, "B", result.QualityGrade)
}

func TestResearchBothSourcesDownNeverAborts(t *testing.T) {
	r := NewResearcher(
		&fakeRetriever{err: true},
		&fakeWeb{err: errBoom},
		&fakeLLM{instruct: "요약"},
	)

	result := r.Research(context.Background(), "005930", "삼성전자")

	require.NotNil(t, result)
	assert.Equal(t, len(consts.Topics), result.MissingTopics())
	assert.Equal(t, "D", result.QualityGrade)
	assert.Len(t, result.Warnings, len(consts.Topics))
	for _, topic := range consts.Topics {
		assert.Equal(t, consts.SourceNone, result.Topic(topic).Source)
	}
}

func TestResearchLLMFailureKeepsRawMaterial(t *testing.T) {
	r := NewResearcher(
		&fakeRetriever{candidates: someCandidates()},
		&fakeWeb{articles: someArticles()},
		&fakeLLM{err: errBoom},
	)

	result := r.Research(context.Background(), "005930", "삼성전자")

	assert.Equal(t, 0, result.MissingTopics(), "a degraded LLM must not empty topics")
	assert.NotEmpty(t, result.Topic(consts.TopicReport).Summary)
}
