package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func TestChartistScoresUptrend(t *testing.T) {
	c := NewChartist(&fakePrices{bars: risingBars(120)})

	score := c.Score(context.Background(), "005930")

	assert.False(t, score.Defaulted)
	assert.False(t, score.LastClose.IsZero())
	assert.Greater(t, score.Trend, 15, "a steady uptrend should score above neutral trend")
	assert.NotEqual(t, "sell", score.Signal)
	assert.LessOrEqual(t, score.Total(), models.ChartistMax)
}

func TestChartistInsufficientHistoryDefaults(t *testing.T) {
	c := NewChartist(&fakePrices{bars: risingBars(30)})

	score := c.Score(context.Background(), "005930")

	assert.True(t, score.Defaulted)
	assert.Equal(t, "neutral", score.Signal)
	assert.NotEmpty(t, score.Warning)
	assert.Equal(t, 50, score.Total())
}

func TestChartistPriceFeedDownDefaults(t *testing.T) {
	c := NewChartist(&fakePrices{err: errBoom})

	score := c.Score(context.Background(), "005930")

	assert.True(t, score.Defaulted)
	assert.Contains(t, score.Warning, "unavailable")
}

func TestChartistNoProviderDefaults(t *testing.T) {
	c := NewChartist(nil)

	score := c.Score(context.Background(), "005930")
	assert.True(t, score.Defaulted)
}

func TestSignalBands(t *testing.T) {
	assert.Equal(t, "buy", signalFor(70))
	assert.Equal(t, "neutral", signalFor(50))
	assert.Equal(t, "sell", signalFor(30))
}
