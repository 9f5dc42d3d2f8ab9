package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is one OHLCV bar.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adj_close"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// FinancialRatios are the structured fields the quant agent scores on.
// A nil pointer means the field could not be obtained; the scorer treats
// it as missing and substitutes the neutral midpoint for its axis.
type FinancialRatios struct {
	Symbol string `json:"symbol"`

	PER           *float64 `json:"per,omitempty"`
	PBR           *float64 `json:"pbr,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`            // percent
	OperatingMgn  *float64 `json:"operating_margin,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"` // percent YoY
	ProfitGrowth  *float64 `json:"profit_growth,omitempty"`  // percent YoY
	DebtRatio     *float64 `json:"debt_ratio,omitempty"`     // percent
	CurrentRatio  *float64 `json:"current_ratio,omitempty"`  // percent

	Source    string    `json:"source"` // statement | extraction
	FetchedAt time.Time `json:"fetched_at"`
}

// MissingFields counts ratios the fetch could not provide.
func (f *FinancialRatios) MissingFields() int {
	n := 0
	for _, p := range []*float64{
		f.PER, f.PBR, f.ROE, f.OperatingMgn,
		f.RevenueGrowth, f.ProfitGrowth, f.DebtRatio, f.CurrentRatio,
	} {
		if p == nil {
			n++
		}
	}
	return n
}

// NewsArticle is one web-search or scraper hit.
type NewsArticle struct {
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}
