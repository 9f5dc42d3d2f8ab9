package models

import "github.com/shopspring/decimal"

// Score maxima. The three agents score on different scales and are
// normalized by the risk manager before fusion.
const (
	HegemonyMoatMax   = 40
	HegemonyGrowthMax = 30
	HegemonyMax       = HegemonyMoatMax + HegemonyGrowthMax // 70
	QuantAxisMax      = 25
	QuantMax          = 4 * QuantAxisMax // 100
	ChartistTrendMax  = 30
	ChartistMomMax    = 30
	ChartistVolaMax   = 20
	ChartistVolMax    = 20
	ChartistMax       = 100
	CombinedMax       = HegemonyMax + QuantMax + ChartistMax // 270
)

// HegemonyScore is the strategist's output: competitive moat plus growth.
type HegemonyScore struct {
	Moat    int    `json:"moat"`   // 0-40
	Growth  int    `json:"growth"` // 0-30
	Grade   string `json:"grade"`  // A/B/C/D heuristic grade
	Opinion string `json:"opinion"`

	// InputGrade records the research quality the score was conditioned
	// on, and AdjustmentSteps how many discrete downgrades were applied.
	InputGrade      string `json:"input_grade"`
	AdjustmentSteps int    `json:"adjustment_steps"`
	Defaulted       bool   `json:"defaulted"`
}

func (h HegemonyScore) Total() int { return h.Moat + h.Growth }

// DefaultHegemonyScore is the neutral substitute when the analyst branch
// fails outright.
func DefaultHegemonyScore(reason string) HegemonyScore {
	return HegemonyScore{
		Moat: 20, Growth: 15, Grade: "C",
		Opinion:   "defaulted: " + reason,
		Defaulted: true,
	}
}

// QuantScore is the quant agent's output, four axes of 25 points each.
type QuantScore struct {
	Valuation     int    `json:"valuation"`
	Profitability int    `json:"profitability"`
	Growth        int    `json:"growth"`
	Stability     int    `json:"stability"`
	Opinion       string `json:"opinion"`
	Defaulted     bool   `json:"defaulted"`
}

func (q QuantScore) Total() int {
	return q.Valuation + q.Profitability + q.Growth + q.Stability
}

func DefaultQuantScore(reason string) QuantScore {
	return QuantScore{
		Valuation: 12, Profitability: 12, Growth: 12, Stability: 12,
		Opinion:   "defaulted: " + reason,
		Defaulted: true,
	}
}

// ChartistScore is the technical analysis output. LastClose carries the
// most recent closing price so the risk manager can derive price targets.
type ChartistScore struct {
	Trend      int             `json:"trend"`      // 0-30
	Momentum   int             `json:"momentum"`   // 0-30
	Volatility int             `json:"volatility"` // 0-20
	Volume     int             `json:"volume"`     // 0-20
	Signal     string          `json:"signal"`     // buy | neutral | sell
	LastClose  decimal.Decimal `json:"last_close"`
	Defaulted  bool            `json:"defaulted"`
	Warning    string          `json:"warning,omitempty"`
}

func (c ChartistScore) Total() int {
	return c.Trend + c.Momentum + c.Volatility + c.Volume
}

func DefaultChartistScore(reason string) ChartistScore {
	return ChartistScore{
		Trend: 15, Momentum: 15, Volatility: 10, Volume: 10,
		Signal:    "neutral",
		Defaulted: true,
		Warning:   reason,
	}
}

// AgentScores is the fan-in aggregate. All three sub-scores are always
// present; a failed branch contributes its default instead of being absent.
type AgentScores struct {
	Hegemony HegemonyScore `json:"hegemony"`
	Quant    QuantScore    `json:"quant"`
	Chartist ChartistScore `json:"chartist"`
}

func (s AgentScores) CombinedTotal() int {
	return s.Hegemony.Total() + s.Quant.Total() + s.Chartist.Total()
}
