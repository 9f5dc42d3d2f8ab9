package agents

import (
	"context"
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/LeeDohoun/HQA-Project/internal/dataflows"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Chartist needs enough history for the slow SMA plus warmup.
const (
	chartistLookbackDays = 160
	chartistMinBars      = 61
)

// Chartist scores technicals from OHLCV history: trend (0-30), momentum
// (0-30), volatility (0-20), and volume (0-20). No usable price history
// yields the neutral default with a warning, never a failure.
type Chartist struct {
	prices dataflows.PriceProvider
}

func NewChartist(prices dataflows.PriceProvider) *Chartist {
	return &Chartist{prices: prices}
}

func (c *Chartist) Score(ctx context.Context, subjectID string) models.ChartistScore {
	if c.prices == nil {
		return models.DefaultChartistScore("no price provider configured")
	}

	bars, err := c.prices.PriceHistory(ctx, subjectID, chartistLookbackDays)
	if err != nil {
		logger.Warnf("price history failed for %s: %v", subjectID, err)
		return models.DefaultChartistScore(fmt.Sprintf("price feed unavailable: %v", err))
	}
	if len(bars) < chartistMinBars {
		return models.DefaultChartistScore(fmt.Sprintf("only %d bars of history, need %d", len(bars), chartistMinBars))
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i], _ = bar.Close.Float64()
		highs[i], _ = bar.High.Float64()
		lows[i], _ = bar.Low.Float64()
		volumes[i] = float64(bar.Volume)
	}
	last := len(bars) - 1

	score := models.ChartistScore{
		Trend:      trendScore(closes),
		Momentum:   momentumScore(closes),
		Volatility: volatilityScore(highs, lows, closes),
		Volume:     volumeScore(closes, volumes),
		LastClose:  bars[last].Close,
	}
	score.Signal = signalFor(score.Total())
	return score
}

func signalFor(total int) string {
	switch {
	case total >= 65:
		return "buy"
	case total <= 35:
		return "sell"
	default:
		return "neutral"
	}
}

// trendScore reads the 20/60 SMA structure: price above both rising
// averages is the strongest configuration.
func trendScore(closes []float64) int {
	sma20 := talib.Sma(closes, 20)
	sma60 := talib.Sma(closes, 60)
	last := len(closes) - 1

	price := closes[last]
	score := 0
	if price > sma20[last] {
		score += 10
	}
	if price > sma60[last] {
		score += 8
	}
	if sma20[last] > sma60[last] {
		score += 7
	}
	if sma20[last] > sma20[last-5] {
		score += 5
	}
	return clamp(score, 0, models.ChartistTrendMax)
}

// momentumScore combines RSI-14 and the MACD histogram.
func momentumScore(closes []float64) int {
	rsi := talib.Rsi(closes, 14)
	_, _, hist := talib.Macd(closes, 12, 26, 9)
	last := len(closes) - 1

	score := 0
	switch r := rsi[last]; {
	case r >= 55 && r <= 70:
		score += 15
	case r > 70:
		// Overbought momentum still counts, at reduced weight.
		score += 8
	case r >= 45:
		score += 10
	case r >= 30:
		score += 5
	}
	if hist[last] > 0 {
		score += 8
		if hist[last] > hist[last-1] {
			score += 7
		}
	}
	return clamp(score, 0, models.ChartistMomMax)
}

// volatilityScore rewards calm tape: low ATR relative to price.
func volatilityScore(highs, lows, closes []float64) int {
	atr := talib.Atr(highs, lows, closes, 14)
	last := len(closes) - 1
	if closes[last] <= 0 {
		return 0
	}
	atrPct := atr[last] / closes[last] * 100

	switch {
	case atrPct <= 1.5:
		return 20
	case atrPct <= 2.5:
		return 15
	case atrPct <= 4:
		return 10
	case atrPct <= 6:
		return 5
	default:
		return 0
	}
}

// volumeScore checks whether volume expands with the price trend.
func volumeScore(closes, volumes []float64) int {
	obv := talib.Obv(closes, volumes)
	volSma := talib.Sma(volumes, 20)
	last := len(closes) - 1

	score := 0
	if obv[last] > obv[last-20] {
		score += 10
	}
	if volumes[last] > volSma[last] {
		score += 5
	}
	if obv[last] > obv[last-5] {
		score += 5
	}
	return clamp(score, 0, models.ChartistVolMax)
}
