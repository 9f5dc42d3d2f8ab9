package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// StatementProvider is the structured financial-statement capability
// consumed by the quant agent's primary path.
type StatementProvider interface {
	FinancialRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error)
}

// DartClient pulls key financial indicators from the DART open API.
type DartClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

func NewDartClient(cfg *config.Config) *DartClient {
	client := resty.New()
	client.SetBaseURL("https://opendart.fss.or.kr/api")
	client.SetTimeout(cfg.SourceTimeout)

	return &DartClient{
		client: client,
		cache:  NewCacheManager(filepath.Join(cfg.DataDir, "cache", "dart"), 24*time.Hour, true),
		apiKey: cfg.DartAPIKey,
	}
}

type dartIndicatorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	List    []struct {
		IndicatorCode string `json:"idx_cl_code"`
		IndicatorName string `json:"idx_nm"`
		Value         string `json:"idx_val"`
	} `json:"list"`
}

// FinancialRatios fetches the latest-period indicator set for a corp code.
func (dc *DartClient) FinancialRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error) {
	if dc.apiKey == "" {
		return nil, fmt.Errorf("%w: DART API key not configured", ErrSourceUnavailable)
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	var cached models.FinancialRatios
	if dc.cache.Get("dart", "ratios", symbol, &cached) {
		return &cached, nil
	}

	var parsed dartIndicatorResponse
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := dc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"crtfc_key":  dc.apiKey,
				"corp_code":  symbol,
				"bsns_year":  strconv.Itoa(time.Now().Year() - 1),
				"reprt_code": "11011", // annual report
			}).
			SetResult(&parsed).
			Get("/fnlttSinglIndx.json")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("%w: DART returned %d", ErrSourceUnavailable, resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if parsed.Status != "000" || len(parsed.List) == 0 {
		return nil, fmt.Errorf("%w: DART status %s (%s)", ErrSourceUnavailable, parsed.Status, parsed.Message)
	}

	ratios := &models.FinancialRatios{
		Symbol:    symbol,
		Source:    "statement",
		FetchedAt: time.Now(),
	}
	for _, item := range parsed.List {
		v, err := strconv.ParseFloat(item.Value, 64)
		if err != nil {
			continue
		}
		val := v
		switch item.IndicatorCode {
		case "M230000": // PER
			ratios.PER = &val
		case "M240000": // PBR
			ratios.PBR = &val
		case "M220000": // ROE
			ratios.ROE = &val
		case "M113000": // operating margin
			ratios.OperatingMgn = &val
		case "M211000": // revenue growth
			ratios.RevenueGrowth = &val
		case "M212000": // net profit growth
			ratios.ProfitGrowth = &val
		case "M121000": // debt ratio
			ratios.DebtRatio = &val
		case "M122000": // current ratio
			ratios.CurrentRatio = &val
		}
	}

	dc.cache.Set("dart", "ratios", symbol, ratios)
	return ratios, nil
}
