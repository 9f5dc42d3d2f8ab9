package agents

import (
	"fmt"
	"time"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Topic weights for the quality score, heaviest first.
var topicWeights = map[string]int{
	consts.TopicReport:   40,
	consts.TopicNews:     25,
	consts.TopicIndustry: 20,
	consts.TopicPolicy:   15,
}

// topicPrimaries records which source each topic's plan treats as primary.
var topicPrimaries = map[string]string{
	consts.TopicReport:   consts.SourceIndex,
	consts.TopicIndustry: consts.SourceIndex,
	consts.TopicNews:     consts.SourceWeb,
	consts.TopicPolicy:   consts.SourceWeb,
}

var topicWarnings = map[string]string{
	consts.TopicReport:   "no analyst report material found, fundamental view is thin",
	consts.TopicNews:     "no recent news found, sentiment signal missing",
	consts.TopicIndustry: "no industry material found, competitive context missing",
	consts.TopicPolicy:   "no policy material found, regulatory context missing",
}

// QualityEvaluator grades a research bundle. It is pure: the grade and
// warnings are a function of the bundle content and the clock alone, so
// repeated calls on an equal bundle yield equal output. The clock is
// injectable for tests.
type QualityEvaluator struct {
	staleAfter time.Duration
	now        func() time.Time
}

func NewQualityEvaluator() *QualityEvaluator {
	return &QualityEvaluator{
		staleAfter: 7 * 24 * time.Hour,
		now:        time.Now,
	}
}

// Evaluate scores the bundle 0-100 and derives the grade.
//
//	A: full coverage, all topics satisfied by their primary source, nothing stale
//	B: full coverage with at least one fallback-sourced topic
//	C: one topic missing, or staleness flagged
//	D: two or more topics missing, or no topic came from a primary source
func (e *QualityEvaluator) Evaluate(r *models.ResearchResult) (grade string, score int, warnings []string) {
	var (
		missing   int
		fallbacks int
		primaries int
		staleHits int
	)

	for _, topic := range consts.Topics {
		tr := r.Topic(topic)
		if tr.Empty() {
			missing++
			warnings = append(warnings, topicWarnings[topic])
			continue
		}
		score += topicWeights[topic]
		switch tr.Source {
		case topicPrimaries[topic]:
			primaries++
		default:
			fallbacks++
			warnings = append(warnings, fmt.Sprintf("%s topic served by fallback source %s", topic, tr.Source))
		}
		if !tr.FetchedAt.IsZero() && e.now().Sub(tr.FetchedAt) > e.staleAfter {
			staleHits++
			warnings = append(warnings, fmt.Sprintf("%s material is older than %d days", topic, int(e.staleAfter.Hours()/24)))
		}
	}

	switch {
	case missing >= 2 || primaries == 0:
		grade = "D"
	case missing == 1 || staleHits > 0:
		grade = "C"
	case fallbacks > 0:
		grade = "B"
	default:
		grade = "A"
	}

	// Clamp the numeric score into the grade's band so the two views
	// never contradict each other.
	score = clampToBand(grade, score)
	return grade, score, warnings
}

func clampToBand(grade string, score int) int {
	lo, hi := bandBounds(grade)
	if score < lo {
		return lo
	}
	if score > hi {
		return hi
	}
	return score
}

func bandBounds(grade string) (int, int) {
	switch grade {
	case "A":
		return 80, 100
	case "B":
		return 60, 79
	case "C":
		return 40, 59
	default:
		return 0, 39
	}
}
