package dataflows

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// ErrSourceUnavailable marks a data source that cannot be reached or is
// not configured. Callers fall back to their alternate source; it is
// never surfaced to the end caller.
var ErrSourceUnavailable = errors.New("source unavailable")

// WebSearcher is the web-search capability consumed by the researcher and
// the quant fallback path.
type WebSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.NewsArticle, error)
}

// WebSearchClient queries a Serper-style search API, with an HTML news
// scrape as a secondary path when no API key is configured.
type WebSearchClient struct {
	client *resty.Client
	cache  *CacheManager
	apiURL string
	apiKey string
}

func NewWebSearchClient(cfg *config.Config) *WebSearchClient {
	client := resty.New()
	client.SetTimeout(cfg.SourceTimeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; HQA/1.0)")

	return &WebSearchClient{
		client: client,
		cache:  NewCacheManager(cfg.DataDir+"/cache/web_search", 2*time.Hour, true),
		apiURL: cfg.WebSearchURL,
		apiKey: cfg.WebSearchAPIKey,
	}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic"`
	News []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
		Source  string `json:"source"`
	} `json:"news"`
}

func (ws *WebSearchClient) Search(ctx context.Context, query string, k int) ([]models.NewsArticle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if k <= 0 {
		k = 10
	}

	cacheKey := map[string]interface{}{"q": query, "k": k}
	var cached []models.NewsArticle
	if ws.cache.Get("web_search", "search", cacheKey, &cached) {
		return cached, nil
	}

	var (
		result []models.NewsArticle
		err    error
	)
	if ws.apiKey != "" {
		result, err = ws.searchAPI(ctx, query, k)
	} else {
		result, err = ws.scrapeNews(ctx, query, k)
	}
	if err != nil {
		return nil, err
	}

	ws.cache.Set("web_search", "search", cacheKey, result)
	return result, nil
}

func (ws *WebSearchClient) searchAPI(ctx context.Context, query string, k int) ([]models.NewsArticle, error) {
	var parsed serperResponse
	resp, err := ws.client.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", ws.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{"q": query, "num": k}).
		SetResult(&parsed).
		Post(ws.apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: search API returned %d", ErrSourceUnavailable, resp.StatusCode())
	}

	articles := make([]models.NewsArticle, 0, k)
	for _, n := range parsed.News {
		articles = append(articles, models.NewsArticle{
			Title:       n.Title,
			Snippet:     n.Snippet,
			URL:         n.Link,
			Source:      n.Source,
			PublishedAt: parseLooseDate(n.Date),
		})
	}
	for _, o := range parsed.Organic {
		articles = append(articles, models.NewsArticle{
			Title:       o.Title,
			Snippet:     o.Snippet,
			URL:         o.Link,
			PublishedAt: parseLooseDate(o.Date),
		})
	}
	if len(articles) > k {
		articles = articles[:k]
	}
	return articles, nil
}

// scrapeNews parses the Google News RSS-ish HTML listing. Best effort:
// markup changes degrade results rather than fail them, but an unreachable
// endpoint is a source failure.
func (ws *WebSearchClient) scrapeNews(ctx context.Context, query string, k int) ([]models.NewsArticle, error) {
	searchURL := "https://news.google.com/rss/search?q=" + url.QueryEscape(query) + "&hl=ko&gl=KR"

	resp, err := ws.client.R().SetContext(ctx).Get(searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: news feed returned %d", ErrSourceUnavailable, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	articles := make([]models.NewsArticle, 0, k)
	doc.Find("item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("title").First().Text())
		if title == "" {
			return true
		}
		articles = append(articles, models.NewsArticle{
			Title:       title,
			Snippet:     strings.TrimSpace(s.Find("description").First().Text()),
			URL:         strings.TrimSpace(s.Find("link").First().Text()),
			Source:      strings.TrimSpace(s.Find("source").First().Text()),
			PublishedAt: parseLooseDate(s.Find("pubDate").First().Text()),
		})
		return len(articles) < k
	})
	return articles, nil
}

func parseLooseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, format := range []string{time.RFC1123, time.RFC1123Z, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
