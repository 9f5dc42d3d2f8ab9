package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeeDohoun/HQA-Project/internal/dataflows"
	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Each axis is scored 0-25; an indicator the fetch could not provide
// contributes the neutral midpoint instead of failing the axis.
const quantAxisMidpoint = 12

// Quant scores fundamentals from structured financial ratios. The
// primary plan reads statement indicators from the disclosure API; the
// fallback searches the web and asks the instruct model to extract the
// fields. Unparsable extraction output is treated as missing fields,
// never as a fatal error.
type Quant struct {
	statements dataflows.StatementProvider
	web        dataflows.WebSearcher
	llm        llm.Client
}

func NewQuant(statements dataflows.StatementProvider, web dataflows.WebSearcher, client llm.Client) *Quant {
	return &Quant{statements: statements, web: web, llm: client}
}

func (q *Quant) Score(ctx context.Context, subjectID, subjectName string) models.QuantScore {
	ratios := q.fetchRatios(ctx, subjectID, subjectName)
	if ratios == nil {
		return models.DefaultQuantScore("no financial data from statement or extraction")
	}

	score := models.QuantScore{
		Valuation:     axisScore(indicatorLowerBetter(ratios.PER, 8, 15, 25, 40), indicatorLowerBetter(ratios.PBR, 0.8, 1.5, 3, 5)),
		Profitability: axisScore(indicatorHigherBetter(ratios.ROE, 3, 7, 12, 18), indicatorHigherBetter(ratios.OperatingMgn, 3, 7, 12, 20)),
		Growth:        axisScore(indicatorHigherBetter(ratios.RevenueGrowth, 0, 5, 12, 25), indicatorHigherBetter(ratios.ProfitGrowth, 0, 5, 15, 30)),
		Stability:     axisScore(indicatorLowerBetter(ratios.DebtRatio, 50, 100, 150, 250), indicatorHigherBetter(ratios.CurrentRatio, 80, 110, 150, 200)),
	}
	score.Opinion = q.opinion(ratios, score)
	if missing := ratios.MissingFields(); missing > 0 {
		score.Opinion += fmt.Sprintf(" (%d개 지표 누락, 중립값 대체)", missing)
	}
	return score
}

// fetchRatios runs the primary statement plan, then web extraction.
func (q *Quant) fetchRatios(ctx context.Context, subjectID, subjectName string) *models.FinancialRatios {
	if q.statements != nil {
		ratios, err := q.statements.FinancialRatios(ctx, subjectID)
		if err == nil && ratios != nil && ratios.MissingFields() < 8 {
			return ratios
		}
		if err != nil {
			logger.Warnf("statement fetch failed for %s, trying extraction: %v", subjectID, err)
		}
	}
	return q.extractRatios(ctx, subjectID, subjectName)
}

type extractedRatios struct {
	PER           *float64 `json:"per"`
	PBR           *float64 `json:"pbr"`
	ROE           *float64 `json:"roe"`
	OperatingMgn  *float64 `json:"operating_margin"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	ProfitGrowth  *float64 `json:"profit_growth"`
	DebtRatio     *float64 `json:"debt_ratio"`
	CurrentRatio  *float64 `json:"current_ratio"`
}

// extractRatios is the plan-B path: search the web for financial
// snippets and pull structured fields out with the instruct model.
func (q *Quant) extractRatios(ctx context.Context, subjectID, subjectName string) *models.FinancialRatios {
	if q.web == nil || q.llm == nil {
		return nil
	}

	articles, err := q.web.Search(ctx, fmt.Sprintf("%s (%s) PER PBR ROE 부채비율 재무지표", subjectName, subjectID), 5)
	if err != nil || len(articles) == 0 {
		if err != nil {
			logger.Warnf("quant web fallback failed for %s: %v", subjectID, err)
		}
		return nil
	}

	prompt := fmt.Sprintf(
		"다음 검색 결과에서 %s의 재무 지표를 추출하여 JSON으로만 답하세요. "+
			"찾을 수 없는 값은 null로 두세요: "+
			`{"per": num, "pbr": num, "roe": num, "operating_margin": num, "revenue_growth": num, "profit_growth": num, "debt_ratio": num, "current_ratio": num}`+
			"\n\n%s", subjectName, renderArticles(articles))

	raw, err := q.llm.Generate(ctx, prompt, llm.ModeInstruct)
	if err != nil {
		logger.Warnf("quant extraction model call failed for %s: %v", subjectID, err)
		return nil
	}

	var out extractedRatios
	if err := decodeJSONBlock(raw, &out); err != nil {
		// Unparsable output means no usable fields, not a fatal error.
		logger.Warnf("quant extraction unparsable for %s: %v", subjectID, err)
		return nil
	}

	return &models.FinancialRatios{
		Symbol:        subjectID,
		PER:           out.PER,
		PBR:           out.PBR,
		ROE:           out.ROE,
		OperatingMgn:  out.OperatingMgn,
		RevenueGrowth: out.RevenueGrowth,
		ProfitGrowth:  out.ProfitGrowth,
		DebtRatio:     out.DebtRatio,
		CurrentRatio:  out.CurrentRatio,
		Source:        "extraction",
	}
}

func (q *Quant) opinion(r *models.FinancialRatios, s models.QuantScore) string {
	parts := make([]string, 0, 4)
	if r.PER != nil {
		parts = append(parts, fmt.Sprintf("PER %.1f", *r.PER))
	}
	if r.ROE != nil {
		parts = append(parts, fmt.Sprintf("ROE %.1f%%", *r.ROE))
	}
	if r.DebtRatio != nil {
		parts = append(parts, fmt.Sprintf("부채비율 %.0f%%", *r.DebtRatio))
	}
	base := fmt.Sprintf("정량 점수 %d/100", s.Total())
	if len(parts) == 0 {
		return base
	}
	return base + " (" + strings.Join(parts, ", ") + ")"
}

// axisScore averages the available indicator scores for one axis. Both
// missing yields the neutral midpoint.
func axisScore(scores ...int) int {
	sum, n := 0, 0
	for _, s := range scores {
		if s < 0 {
			continue
		}
		sum += s
		n++
	}
	if n == 0 {
		return quantAxisMidpoint
	}
	return sum / n
}

// indicatorHigherBetter maps a value to 0-25 against ascending
// thresholds; -1 marks a missing value.
func indicatorHigherBetter(v *float64, t1, t2, t3, t4 float64) int {
	if v == nil {
		return -1
	}
	switch {
	case *v >= t4:
		return 25
	case *v >= t3:
		return 20
	case *v >= t2:
		return 15
	case *v >= t1:
		return 10
	default:
		return 5
	}
}

// indicatorLowerBetter maps a value where smaller is better.
func indicatorLowerBetter(v *float64, t1, t2, t3, t4 float64) int {
	if v == nil {
		return -1
	}
	switch {
	case *v <= 0:
		// Negative PER or the like reads as distressed, not cheap.
		return 5
	case *v <= t1:
		return 25
	case *v <= t2:
		return 20
	case *v <= t3:
		return 15
	case *v <= t4:
		return 10
	default:
		return 5
	}
}
