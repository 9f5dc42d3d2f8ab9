package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Grade-conditioned downgrade. One step takes 6 points off moat and 5
// off growth, clamped at zero.
const (
	moatStepPenalty   = 6
	growthStepPenalty = 5
)

var gradeAdjustmentSteps = map[string]int{
	"A": 0,
	"B": 0,
	"C": 1,
	"D": 2,
}

// Strategist scores competitive hegemony (moat 0-40, growth 0-30) from
// the research bundle. It always returns a score: a failed model call
// yields the neutral default, and low input quality degrades the score
// and narrative rather than availability.
type Strategist struct {
	llm llm.Client
}

func NewStrategist(client llm.Client) *Strategist {
	return &Strategist{llm: client}
}

type strategistOutput struct {
	Moat    int    `json:"moat"`
	Growth  int    `json:"growth"`
	Grade   string `json:"grade"`
	Opinion string `json:"opinion"`
}

func (s *Strategist) Score(ctx context.Context, research *models.ResearchResult) models.HegemonyScore {
	if research == nil {
		return models.DefaultHegemonyScore("no research bundle")
	}
	if s.llm == nil {
		score := models.DefaultHegemonyScore("no model configured")
		score.InputGrade = research.QualityGrade
		return score
	}

	raw, err := s.llm.Generate(ctx, s.prompt(research), llm.ModeInstruct)
	if err != nil {
		logger.Warnf("strategist model call failed for %s: %v", research.SubjectID, err)
		score := models.DefaultHegemonyScore(err.Error())
		score.InputGrade = research.QualityGrade
		return score
	}

	var out strategistOutput
	if err := decodeJSONBlock(raw, &out); err != nil {
		logger.Warnf("strategist output unparsable for %s: %v", research.SubjectID, err)
		score := models.DefaultHegemonyScore("unparsable model output")
		score.InputGrade = research.QualityGrade
		return score
	}

	score := models.HegemonyScore{
		Moat:       clamp(out.Moat, 0, models.HegemonyMoatMax),
		Growth:     clamp(out.Growth, 0, models.HegemonyGrowthMax),
		Grade:      normalizeGrade(out.Grade),
		Opinion:    out.Opinion,
		InputGrade: research.QualityGrade,
	}
	return s.adjustForQuality(score, research.QualityGrade)
}

// adjustForQuality applies the fixed grade-to-adjustment mapping: D gets
// two downgrade steps, C one, B an added caution clause, A unchanged.
func (s *Strategist) adjustForQuality(score models.HegemonyScore, grade string) models.HegemonyScore {
	steps := gradeAdjustmentSteps[grade]
	if steps > 0 {
		score.Moat = clamp(score.Moat-steps*moatStepPenalty, 0, models.HegemonyMoatMax)
		score.Growth = clamp(score.Growth-steps*growthStepPenalty, 0, models.HegemonyGrowthMax)
		score.AdjustmentSteps = steps
		score.Opinion += fmt.Sprintf(" [자료 품질 %s등급으로 점수 %d단계 하향 조정]", grade, steps)
	} else if grade == "B" {
		score.Opinion += " [주의: 일부 자료가 대체 출처에서 수집되어 신뢰도가 다소 낮음]"
	}
	return score
}

func (s *Strategist) prompt(research *models.ResearchResult) string {
	var b strings.Builder
	b.WriteString("당신은 기업의 경쟁 우위(헤게모니)를 평가하는 전략 분석가입니다.\n")
	fmt.Fprintf(&b, "대상: %s (%s)\n\n수집 자료:\n", research.SubjectName, research.SubjectID)
	for _, topic := range consts.Topics {
		tr := research.Topic(topic)
		if tr.Empty() {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", topic, tr.Summary)
	}
	b.WriteString("해자(moat)를 0-40점, 성장성(growth)을 0-30점으로 평가하고 ")
	b.WriteString("JSON으로만 답하세요: {\"moat\": int, \"growth\": int, \"grade\": \"A|B|C|D\", \"opinion\": \"한줄 평\"}")
	return b.String()
}

func normalizeGrade(g string) string {
	g = strings.ToUpper(strings.TrimSpace(g))
	switch g {
	case "A", "B", "C", "D":
		return g
	}
	return "C"
}
