package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func healthyRatios() *models.FinancialRatios {
	return &models.FinancialRatios{
		Symbol:        "005930",
		PER:           f64(9.5),
		PBR:           f64(1.1),
		ROE:           f64(14.0),
		OperatingMgn:  f64(15.0),
		RevenueGrowth: f64(8.0),
		ProfitGrowth:  f64(20.0),
		DebtRatio:     f64(40.0),
		CurrentRatio:  f64(180.0),
		Source:        "statement",
	}
}

func TestQuantScoresHealthyStatement(t *testing.T) {
	q := NewQuant(&fakeStatements{ratios: healthyRatios()}, nil, nil)

	score := q.Score(context.Background(), "005930", "삼성전자")

	assert.False(t, score.Defaulted)
	assert.Greater(t, score.Total(), 60, "strong fundamentals should score well above midpoint")
	assert.LessOrEqual(t, score.Total(), models.QuantMax)
	assert.Contains(t, score.Opinion, "PER")
}

func TestQuantMissingFieldsUseMidpoint(t *testing.T) {
	ratios := healthyRatios()
	ratios.RevenueGrowth = nil
	ratios.ProfitGrowth = nil

	q := NewQuant(&fakeStatements{ratios: ratios}, nil, nil)
	score := q.Score(context.Background(), "005930", "삼성전자")

	assert.Equal(t, quantAxisMidpoint, score.Growth)
	assert.Contains(t, score.Opinion, "누락")
}

func TestQuantStatementFailureFallsBackToExtraction(t *testing.T) {
	q := NewQuant(
		&fakeStatements{err: errBoom},
		&fakeWeb{articles: someArticles()},
		&fakeLLM{instruct: `{"per": 10, "pbr": 1.2, "roe": 12, "operating_margin": null, "revenue_growth": 5, "profit_growth": null, "debt_ratio": 60, "current_ratio": 150}`},
	)

	score := q.Score(context.Background(), "005930", "삼성전자")

	assert.False(t, score.Defaulted)
	assert.Greater(t, score.Total(), 0)
}

func TestQuantUnparsableExtractionDefaults(t *testing.T) {
	q := NewQuant(
		&fakeStatements{err: errBoom},
		&fakeWeb{articles: someArticles()},
		&fakeLLM{instruct: "재무 지표를 찾을 수 없습니다"},
	)

	score := q.Score(context.Background(), "005930", "삼성전자")

	assert.True(t, score.Defaulted)
	assert.Equal(t, models.DefaultQuantScore("").Total(), score.Total())
}

func TestQuantAllSourcesDownDefaults(t *testing.T) {
	q := NewQuant(&fakeStatements{err: errBoom}, &fakeWeb{err: errBoom}, &fakeLLM{instruct: "x"})

	score := q.Score(context.Background(), "005930", "삼성전자")

	assert.True(t, score.Defaulted)
	assert.Equal(t, 48, score.Total())
}

func TestIndicatorBands(t *testing.T) {
	assert.Equal(t, 25, indicatorLowerBetter(f64(7), 8, 15, 25, 40))
	assert.Equal(t, 5, indicatorLowerBetter(f64(50), 8, 15, 25, 40))
	assert.Equal(t, 5, indicatorLowerBetter(f64(-3), 8, 15, 25, 40), "negative PER is distressed, not cheap")
	assert.Equal(t, -1, indicatorLowerBetter(nil, 8, 15, 25, 40))

	assert.Equal(t, 25, indicatorHigherBetter(f64(20), 3, 7, 12, 18))
	assert.Equal(t, 5, indicatorHigherBetter(f64(1), 3, 7, 12, 18))
	assert.Equal(t, -1, indicatorHigherBetter(nil, 3, 7, 12, 18))
}
