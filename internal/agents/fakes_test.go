package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// fakeLLM answers every prompt with a canned response per mode.
type fakeLLM struct {
	instruct string
	thinking string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(_ context.Context, _ string, mode llm.Mode) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if mode == llm.ModeThinking {
		return f.thinking, nil
	}
	return f.instruct, nil
}

// fakeRetriever serves fixed candidates per query substring.
type fakeRetriever struct {
	candidates []models.RetrievalCandidate
	err        bool
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, k int) []models.RetrievalCandidate {
	if f.err || len(f.candidates) == 0 {
		return nil
	}
	if len(f.candidates) > k {
		return f.candidates[:k]
	}
	return f.candidates
}

// fakeWeb serves fixed articles or an error.
type fakeWeb struct {
	articles []models.NewsArticle
	err      error
}

func (f *fakeWeb) Search(_ context.Context, _ string, _ int) ([]models.NewsArticle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

// fakeStatements serves fixed ratios or an error.
type fakeStatements struct {
	ratios *models.FinancialRatios
	err    error
}

func (f *fakeStatements) FinancialRatios(_ context.Context, _ string) (*models.FinancialRatios, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ratios, nil
}

// fakePrices serves a synthetic bar series or an error.
type fakePrices struct {
	bars []models.MarketData
	err  error
}

func (f *fakePrices) PriceHistory(_ context.Context, _ string, _ int) ([]models.MarketData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

// risingBars builds n daily bars with a steady uptrend and expanding
// volume, enough warmup for every indicator in use.
func risingBars(n int) []models.MarketData {
	bars := make([]models.MarketData, n)
	base := time.Now().AddDate(0, 0, -n)
	for i := range bars {
		price := 50000.0 + float64(i)*120
		bars[i] = models.MarketData{
			Symbol: "005930",
			Date:   base.AddDate(0, 0, i),
			Open:   decimal.NewFromFloat(price - 80),
			High:   decimal.NewFromFloat(price + 180),
			Low:    decimal.NewFromFloat(price - 220),
			Close:  decimal.NewFromFloat(price),
			Volume: int64(1_000_000 + i*12_000),
		}
	}
	return bars
}

func f64(v float64) *float64 { return &v }

var errBoom = fmt.Errorf("boom")
