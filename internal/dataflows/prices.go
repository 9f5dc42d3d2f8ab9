package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// PriceProvider is the market-data capability consumed by the chartist.
type PriceProvider interface {
	PriceHistory(ctx context.Context, symbol string, days int) ([]models.MarketData, error)
}

// YahooFinanceClient fetches OHLCV history through Yahoo Finance.
type YahooFinanceClient struct {
	cache *CacheManager
}

func NewYahooFinanceClient(cfg *config.Config) *YahooFinanceClient {
	cacheDir := filepath.Join(cfg.DataDir, "cache", "yahoo_finance")
	return &YahooFinanceClient{
		cache: NewCacheManager(cacheDir, 24*time.Hour, true),
	}
}

// PriceHistory returns up to the last `days` daily bars, oldest first.
func (yf *YahooFinanceClient) PriceHistory(ctx context.Context, symbol string, days int) ([]models.MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	yahooSym := YahooSymbol(symbol)

	end := time.Now()
	start := end.AddDate(0, 0, -days*2) // weekends and holidays thin the range

	cacheKey := map[string]interface{}{
		"symbol": yahooSym,
		"days":   days,
		"date":   end.Format("2006-01-02"),
	}
	var cached []models.MarketData
	if yf.cache.Get("yahoo", "history", cacheKey, &cached) {
		return cached, nil
	}

	var result []models.MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   yahooSym,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, models.MarketData{
				Symbol:    symbol,
				Date:      time.Unix(int64(bar.Timestamp), 0),
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				AdjClose:  bar.AdjClose,
				Volume:    int64(bar.Volume),
				Timestamp: time.Now(),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("fetch chart for %s: %w", yahooSym, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}
	if len(result) > days {
		result = result[len(result)-days:]
	}

	yf.cache.Set("yahoo", "history", cacheKey, result)
	return result, nil
}
