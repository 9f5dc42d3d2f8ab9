package agents

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func stateWith(grade string, scores models.AgentScores) *models.AnalysisState {
	req, _ := models.NewAnalysisRequest("005930", "삼성전자", consts.ModeQuick)
	st := models.NewAnalysisState(req, 1)
	st.QualityGrade = grade
	st.Scores = &scores
	return st
}

func strongScores() models.AgentScores {
	return models.AgentScores{
		Hegemony: models.HegemonyScore{Moat: 36, Growth: 27, Grade: "A"},
		Quant:    models.QuantScore{Valuation: 22, Profitability: 23, Growth: 21, Stability: 22},
		Chartist: models.ChartistScore{Trend: 26, Momentum: 25, Volatility: 16, Volume: 16, Signal: "buy", LastClose: decimal.NewFromInt(70000)},
	}
}

func TestCombinedScoreWeighting(t *testing.T) {
	scores := models.AgentScores{
		Hegemony: models.HegemonyScore{Moat: 40, Growth: 30},              // 70/70 → 100
		Quant:    models.QuantScore{Valuation: 25, Profitability: 25, Growth: 25, Stability: 25}, // 100
		Chartist: models.ChartistScore{Trend: 30, Momentum: 30, Volatility: 20, Volume: 20},      // 100
	}
	assert.Equal(t, 100, CombinedScore(scores))

	neutral := models.AgentScores{
		Hegemony: models.DefaultHegemonyScore("x"), // 35/70 → 50
		Quant:    models.DefaultQuantScore("x"),    // 48
		Chartist: models.DefaultChartistScore("x"), // 50
	}
	// 0.40*50 + 0.35*48 + 0.25*50 = 49.3
	assert.Equal(t, 49, CombinedScore(neutral))
}

func TestActionBands(t *testing.T) {
	cases := []struct {
		combined int
		want     models.InvestmentAction
	}{
		{85, models.ActionStrongBuy},
		{80, models.ActionStrongBuy},
		{70, models.ActionBuy},
		{50, models.ActionHold},
		{35, models.ActionReduce},
		{20, models.ActionSell},
		{5, models.ActionStrongSell},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, actionFor(tc.combined), "combined=%d", tc.combined)
	}
}

func TestDecideStrongSubjectOnCleanResearch(t *testing.T) {
	rm := NewRiskManager(nil)
	st := stateWith("A", strongScores())

	d := rm.Decide(context.Background(), st)

	assert.Equal(t, models.ActionStrongBuy, d.Action)
	assert.Equal(t, models.RiskLow, d.RiskLevel)
	assert.Equal(t, 100, d.PositionSize)
	assert.Equal(t, "A", d.QualityGrade)
	assert.Equal(t, 90, d.Confidence)

	// Buy-side stop at 8% under the close.
	assert.True(t, d.StopLoss.Equal(decimal.NewFromInt(64400)), "got %s", d.StopLoss)
	assert.True(t, d.TargetPrice.GreaterThan(decimal.NewFromInt(70000)))
}

func TestDecideDGradeCapsRiskAndConfidence(t *testing.T) {
	rm := NewRiskManager(nil)
	st := stateWith("D", strongScores())
	st.RetryCount = 1

	d := rm.Decide(context.Background(), st)

	assert.Equal(t, models.RiskVeryHigh, d.RiskLevel)
	assert.Equal(t, 40, d.Confidence)
	require.NotEmpty(t, d.Warnings)
	assert.Contains(t, d.Warnings[len(d.Warnings)-1], "retry")
}

func TestDecideDefaultedBranchesBumpRisk(t *testing.T) {
	scores := strongScores()
	scores.Quant = models.DefaultQuantScore("quant down")
	scores.Chartist = models.DefaultChartistScore("feed down")

	rm := NewRiskManager(nil)
	d := rm.Decide(context.Background(), stateWith("A", scores))

	assert.Equal(t, models.RiskMedium, d.RiskLevel, "two defaulted branches push low to medium")
	assert.Equal(t, 70, d.Confidence)
}

func TestDecideWithUnassembledStateSubstitutesDefaults(t *testing.T) {
	req, _ := models.NewAnalysisRequest("005930", "삼성전자", consts.ModeQuick)
	st := models.NewAnalysisState(req, 1)
	st.QualityGrade = "D"

	rm := NewRiskManager(nil)
	d := rm.Decide(context.Background(), st)

	assert.NotEmpty(t, d.Action, "a decision is always produced")
	assert.Equal(t, models.RiskVeryHigh, d.RiskLevel)
}

func TestDecideQuickModeSkipsNarrative(t *testing.T) {
	client := &fakeLLM{thinking: "깊은 분석"}
	rm := NewRiskManager(client)

	d := rm.Decide(context.Background(), stateWith("A", strongScores()))

	assert.Empty(t, d.Reasoning)
	assert.Zero(t, client.calls)
	assert.NotEmpty(t, d.Summary)
}

func TestDecideFullModeAddsNarrative(t *testing.T) {
	rm := NewRiskManager(&fakeLLM{thinking: "투자 근거 서술"})
	st := stateWith("A", strongScores())
	st.Request.Mode = consts.ModeFull

	d := rm.Decide(context.Background(), st)
	assert.Equal(t, "투자 근거 서술", d.Reasoning)
}

func TestDecideNarrativeFailureIsAdvisoryOnly(t *testing.T) {
	rm := NewRiskManager(&fakeLLM{err: errBoom})
	st := stateWith("A", strongScores())
	st.Request.Mode = consts.ModeFull

	d := rm.Decide(context.Background(), st)

	assert.Empty(t, d.Reasoning)
	assert.Equal(t, models.ActionStrongBuy, d.Action, "structured fields unaffected by narrative failure")
}

func TestPriceLevelsZeroCloseYieldsZero(t *testing.T) {
	target, stop := priceLevels(decimal.Zero, 80, models.ActionStrongBuy)
	assert.True(t, target.IsZero())
	assert.True(t, stop.IsZero())
}
