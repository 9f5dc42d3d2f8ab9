package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Fusion weights over the three normalized sub-scores.
const (
	weightHegemony = 0.40
	weightQuant    = 0.35
	weightChartist = 0.25
)

// RiskManager fuses the three sub-scores into the final decision. The
// structured fields (action, risk, position, prices) are deterministic;
// the thinking model only contributes narrative and never changes them.
type RiskManager struct {
	llm llm.Client
}

func NewRiskManager(client llm.Client) *RiskManager {
	return &RiskManager{llm: client}
}

// Decide always produces a decision. It requires an assembled score set;
// Assemble substitutes neutral defaults so all three are present.
func (rm *RiskManager) Decide(ctx context.Context, state *models.AnalysisState) models.FinalDecision {
	scores := state.Scores
	if scores == nil {
		scores = state.Assemble()
	}

	combined := CombinedScore(*scores)
	action := actionFor(combined)
	risk := riskFor(state.QualityGrade, *scores)

	decision := models.FinalDecision{
		SubjectID:     state.Request.SubjectID,
		SubjectName:   state.Request.SubjectName,
		CombinedScore: combined,
		Action:        action,
		RiskLevel:     risk,
		Confidence:    confidenceFor(state.QualityGrade, *scores),
		PositionSize:  positionFor(action, risk),
		QualityGrade:  state.QualityGrade,
		Warnings:      collectWarnings(state),
		Timestamp:     time.Now(),
	}
	decision.TargetPrice, decision.StopLoss = priceLevels(scores.Chartist.LastClose, combined, action)
	decision.Summary = rm.summary(decision, *scores)

	if state.Request.Mode != consts.ModeQuick {
		decision.Reasoning = rm.narrative(ctx, decision, state)
	}
	return decision
}

// CombinedScore maps the three raw totals onto one 0-100 scale:
// hegemony normalized from its 70-point scale, quant and chartist
// already on 100.
func CombinedScore(s models.AgentScores) int {
	hegemonyPct := float64(s.Hegemony.Total()) / float64(models.HegemonyMax) * 100
	combined := weightHegemony*hegemonyPct +
		weightQuant*float64(s.Quant.Total()) +
		weightChartist*float64(s.Chartist.Total())
	return clamp(int(combined+0.5), 0, 100)
}

func actionFor(combined int) models.InvestmentAction {
	switch {
	case combined >= 80:
		return models.ActionStrongBuy
	case combined >= 65:
		return models.ActionBuy
	case combined >= 45:
		return models.ActionHold
	case combined >= 30:
		return models.ActionReduce
	case combined >= 15:
		return models.ActionSell
	default:
		return models.ActionStrongSell
	}
}

// riskFor derives risk from research quality, bumped one step when two
// or more branches fell back to defaults.
func riskFor(grade string, s models.AgentScores) models.RiskLevel {
	var risk models.RiskLevel
	switch grade {
	case "A":
		risk = models.RiskLow
	case "B":
		risk = models.RiskMedium
	case "C":
		risk = models.RiskHigh
	default:
		risk = models.RiskVeryHigh
	}
	if defaultedBranches(s) >= 2 {
		risk = bumpRisk(risk)
	}
	return risk
}

func bumpRisk(r models.RiskLevel) models.RiskLevel {
	switch r {
	case models.RiskVeryLow:
		return models.RiskLow
	case models.RiskLow:
		return models.RiskMedium
	case models.RiskMedium:
		return models.RiskHigh
	default:
		return models.RiskVeryHigh
	}
}

func defaultedBranches(s models.AgentScores) int {
	n := 0
	if s.Hegemony.Defaulted {
		n++
	}
	if s.Quant.Defaulted {
		n++
	}
	if s.Chartist.Defaulted {
		n++
	}
	return n
}

// confidenceFor starts from the quality grade and loses 10 points per
// defaulted branch.
func confidenceFor(grade string, s models.AgentScores) int {
	var base int
	switch grade {
	case "A":
		base = 90
	case "B":
		base = 75
	case "C":
		base = 60
	default:
		base = 40
	}
	return clamp(base-10*defaultedBranches(s), 10, 95)
}

// positionFor sizes the position in 25% steps, capped at 75% unless the
// call is a strong buy under low risk.
func positionFor(action models.InvestmentAction, risk models.RiskLevel) int {
	switch action {
	case models.ActionStrongBuy:
		if risk == models.RiskVeryLow || risk == models.RiskLow {
			return 100
		}
		return 75
	case models.ActionBuy:
		return 50
	case models.ActionHold, models.ActionReduce:
		return 25
	default:
		return 0
	}
}

// priceLevels derives target and stop from the last close. Buy-side
// calls carry the tighter 8% stop; everything else 5%. Zero close means
// no price data, so both levels stay zero.
func priceLevels(close decimal.Decimal, combined int, action models.InvestmentAction) (target, stop decimal.Decimal) {
	if close.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	upside := decimal.NewFromFloat(1 + float64(combined-50)/100*0.4)
	target = close.Mul(upside).Round(0)

	stopMul := decimal.NewFromFloat(0.95)
	if action == models.ActionStrongBuy || action == models.ActionBuy {
		stopMul = decimal.NewFromFloat(0.92)
	}
	stop = close.Mul(stopMul).Round(0)
	return target, stop
}

func collectWarnings(state *models.AnalysisState) []string {
	var warnings []string
	if state.Research != nil {
		warnings = append(warnings, state.Research.Warnings...)
	}
	for branch, msg := range state.Errors {
		warnings = append(warnings, fmt.Sprintf("%s branch recovered from failure: %s", branch, msg))
	}
	if state.QualityGrade == "D" && state.RetryCount > 0 {
		warnings = append(warnings, "research quality remained D after retry, decision confidence is reduced")
	}
	return warnings
}

func (rm *RiskManager) summary(d models.FinalDecision, s models.AgentScores) string {
	return fmt.Sprintf("%s(%s): 종합 %d점 → %s, 리스크 %s, 비중 %d%% (헤게모니 %d/70, 정량 %d/100, 기술 %d/100)",
		d.SubjectName, d.SubjectID, d.CombinedScore, d.Action, d.RiskLevel, d.PositionSize,
		s.Hegemony.Total(), s.Quant.Total(), s.Chartist.Total())
}

// narrative asks the thinking model for an investment rationale. Model
// failure leaves the deterministic summary as the only text.
func (rm *RiskManager) narrative(ctx context.Context, d models.FinalDecision, state *models.AnalysisState) string {
	if rm.llm == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("다음 분석 결과를 바탕으로 투자 판단의 근거를 서술하세요. ")
	b.WriteString("점수와 액션은 이미 확정되었으므로 바꾸지 말고 근거만 설명하세요.\n\n")
	fmt.Fprintf(&b, "결론: %s\n", d.Summary)
	if state.Scores != nil {
		fmt.Fprintf(&b, "전략가 의견: %s\n", state.Scores.Hegemony.Opinion)
		fmt.Fprintf(&b, "정량 의견: %s\n", state.Scores.Quant.Opinion)
		fmt.Fprintf(&b, "기술적 신호: %s\n", state.Scores.Chartist.Signal)
	}
	if len(d.Warnings) > 0 {
		fmt.Fprintf(&b, "주의사항: %s\n", strings.Join(d.Warnings, "; "))
	}

	text, err := rm.llm.Generate(ctx, b.String(), llm.ModeThinking)
	if err != nil {
		logger.Warnf("risk manager narrative failed for %s: %v", d.SubjectID, err)
		return ""
	}
	return text
}
