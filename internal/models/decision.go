package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvestmentAction string

const (
	ActionStrongBuy  InvestmentAction = "strong_buy"
	ActionBuy        InvestmentAction = "buy"
	ActionHold       InvestmentAction = "hold"
	ActionReduce     InvestmentAction = "reduce"
	ActionSell       InvestmentAction = "sell"
	ActionStrongSell InvestmentAction = "strong_sell"
)

type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// FinalDecision is the terminal artifact of one analysis run. The
// structured fields are computed deterministically from AgentScores; the
// narrative fields are advisory text only.
type FinalDecision struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	CombinedScore int              `json:"combined_score"` // 0-100 weighted
	Action        InvestmentAction `json:"action"`
	RiskLevel     RiskLevel        `json:"risk_level"`
	Confidence    int              `json:"confidence"`    // 0-100
	PositionSize  int              `json:"position_size"` // percent of notional, 0-100

	TargetPrice decimal.Decimal `json:"target_price"`
	StopLoss    decimal.Decimal `json:"stop_loss"`

	QualityGrade string   `json:"quality_grade"`
	Warnings     []string `json:"warnings,omitempty"`

	Summary   string    `json:"summary"`
	Reasoning string    `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
