package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/dataflows"
	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
	"github.com/LeeDohoun/HQA-Project/internal/rag"
)

// sourcePlan is one topic's fixed primary/fallback source order.
type sourcePlan struct {
	primary  string
	fallback string
}

// topicPlans is the per-topic source policy. Document-shaped topics lean
// on the retrieval index first; time-sensitive topics go to the web first.
var topicPlans = map[string]sourcePlan{
	consts.TopicReport:   {primary: consts.SourceIndex, fallback: consts.SourceWeb},
	consts.TopicIndustry: {primary: consts.SourceIndex, fallback: consts.SourceWeb},
	consts.TopicNews:     {primary: consts.SourceWeb, fallback: consts.SourceIndex},
	consts.TopicPolicy:   {primary: consts.SourceWeb, fallback: consts.SourceIndex},
}

var topicQueries = map[string]string{
	consts.TopicReport:   "%s (%s) 실적 재무 분석 리포트",
	consts.TopicNews:     "%s (%s) 최신 뉴스",
	consts.TopicIndustry: "%s 산업 동향 경쟁사",
	consts.TopicPolicy:   "%s 관련 정책 규제",
}

// Retriever is the evidence-retrieval contract the researcher depends on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []models.RetrievalCandidate
}

// Researcher gathers per-topic material for one subject. Each topic is
// attempted independently with its plan's primary source, then its
// fallback; a topic with both plans exhausted is recorded empty with a
// warning. Research never fails as a whole.
type Researcher struct {
	retriever Retriever
	web       dataflows.WebSearcher
	llm       llm.Client
	evaluator *QualityEvaluator
	topK      int
}

func NewResearcher(retriever Retriever, web dataflows.WebSearcher, client llm.Client) *Researcher {
	return &Researcher{
		retriever: retriever,
		web:       web,
		llm:       client,
		evaluator: NewQualityEvaluator(),
		topK:      5,
	}
}

// Research fills all topics for the subject and grades the bundle.
func (r *Researcher) Research(ctx context.Context, subjectID, subjectName string) *models.ResearchResult {
	result := models.NewResearchResult(subjectID, subjectName)

	for _, topic := range consts.Topics {
		var query string
		switch topic {
		case consts.TopicIndustry, consts.TopicPolicy:
			query = fmt.Sprintf(topicQueries[topic], subjectName)
		default:
			query = fmt.Sprintf(topicQueries[topic], subjectName, subjectID)
		}

		tr := r.researchTopic(ctx, topic, query)
		if tr.Empty() {
			logger.Warnf("topic %s: both source plans failed for %s", topic, subjectID)
		}
		result.Topics[topic] = tr
	}

	grade, score, warnings := r.evaluator.Evaluate(result)
	result.QualityGrade = grade
	result.QualityScore = score
	result.Warnings = warnings
	return result
}

func (r *Researcher) researchTopic(ctx context.Context, topic, query string) models.TopicResult {
	plan := topicPlans[topic]

	for _, source := range []string{plan.primary, plan.fallback} {
		raw := r.fetch(ctx, source, query)
		if raw == "" {
			continue
		}
		return models.TopicResult{
			Summary:   r.summarize(ctx, topic, query, raw),
			Source:    source,
			FetchedAt: time.Now(),
		}
	}
	return models.TopicResult{Source: consts.SourceNone}
}

// fetch pulls raw material from one source, empty string on failure.
func (r *Researcher) fetch(ctx context.Context, source, query string) string {
	switch source {
	case consts.SourceIndex:
		if r.retriever == nil {
			return ""
		}
		return rag.Context(r.retriever.Retrieve(ctx, query, r.topK))
	case consts.SourceWeb:
		if r.web == nil {
			return ""
		}
		articles, err := r.web.Search(ctx, query, r.topK)
		if err != nil {
			logger.Warnf("web search failed for %q: %v", query, err)
			return ""
		}
		return renderArticles(articles)
	}
	return ""
}

// summarize condenses raw material with the instruct model. When the
// model is unavailable the raw material stands in for the summary so a
// degraded LLM never empties a topic that had evidence.
func (r *Researcher) summarize(ctx context.Context, topic, query, raw string) string {
	if r.llm == nil {
		return raw
	}
	prompt := fmt.Sprintf(
		"다음 자료를 바탕으로 '%s' 관련 핵심 내용을 5문장 이내로 요약하세요.\n질의: %s\n\n자료:\n%s",
		topic, query, raw)
	summary, err := r.llm.Generate(ctx, prompt, llm.ModeInstruct)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			logger.Warnf("summarize %s failed, keeping raw material: %v", topic, err)
		}
		return raw
	}
	return summary
}

func renderArticles(articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "- %s", a.Title)
		if a.Snippet != "" {
			fmt.Fprintf(&b, ": %s", a.Snippet)
		}
		if !a.PublishedAt.IsZero() {
			fmt.Fprintf(&b, " (%s)", a.PublishedAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
