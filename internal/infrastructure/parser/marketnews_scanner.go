package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/scanner"
)

const (
	defaultBusinessCategory = "business"
	defaultMarketNewsLimit  = 50
)

// MarketNewsScanner talks to a financial news API that returns scored items
// (EODHD /news format: symbols, tags and a sentiment breakdown).
type MarketNewsScanner struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewMarketNewsScanner creates a reusable client limited to perSecond requests.
func NewMarketNewsScanner(client *http.Client, perSecond float64) *MarketNewsScanner {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &MarketNewsScanner{
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name identifies the strategy inside the registry.
func (m *MarketNewsScanner) Name() string {
	return "marketnews"
}

type marketNewsItem struct {
	Date      string   `json:"date"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Link      string   `json:"link"`
	Image     string   `json:"image"`
	Symbols   []string `json:"symbols"`
	Tags      []string `json:"tags"`
	Sentiment *struct {
		Polarity float64 `json:"polarity"`
		Neg      float64 `json:"neg"`
		Neu      float64 `json:"neu"`
		Pos      float64 `json:"pos"`
	} `json:"sentiment"`
}

// Scan queries each category endpoint. Options: "apiKey" (required),
// "businessCategory" (second category of dual classification).
func (m *MarketNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawArticle, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}
	apiKey := req.Options["apiKey"]
	if apiKey == "" {
		return nil, fmt.Errorf("site %s: marketnews api key is not configured", req.SiteName)
	}
	business := req.Options["businessCategory"]
	if business == "" {
		business = defaultBusinessCategory
	}

	results := make([]domain.RawArticle, 0)
	seen := map[string]struct{}{}
	for _, cat := range req.Categories {
		endpoint, err := newsURL(cat.URL, apiKey, req.Since, req.Limit)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		var items []marketNewsItem
		if err := m.get(ctx, endpoint, &items); err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		for _, item := range items {
			raw, ok := toMarketRaw(item, req.SiteName, cat.Name, business)
			if !ok || (!req.Since.IsZero() && raw.PublishedAt.Before(req.Since)) {
				continue
			}
			if _, dup := seen[raw.NativeID]; dup {
				continue
			}
			seen[raw.NativeID] = struct{}{}
			results = append(results, raw)
		}
	}

	return results, nil
}

func toMarketRaw(item marketNewsItem, siteName, category, business string) (domain.RawArticle, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.RawArticle{}, false
	}

	key := item.Link
	if key == "" {
		key = title + "|" + item.Date
	}

	raw := domain.RawArticle{
		Source:           siteName,
		NativeID:         shortHash(key),
		Title:            title,
		Body:             strings.TrimSpace(item.Content),
		Keywords:         item.Tags,
		URL:              item.Link,
		ImageURL:         item.Image,
		PublishedAt:      parseNewsDate(item.Date),
		Category:         category,
		BusinessCategory: business,
		Tickers:          item.Symbols,
	}
	raw.Description = firstParagraph(raw.Body)
	if item.Sentiment != nil {
		raw.Sentiment = &domain.Sentiment{
			Polarity: item.Sentiment.Polarity,
			Negative: item.Sentiment.Neg,
			Neutral:  item.Sentiment.Neu,
			Positive: item.Sentiment.Pos,
		}
	}
	return raw, true
}

func parseNewsDate(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

func newsURL(base, apiKey string, since time.Time, limit int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}
	if limit <= 0 {
		limit = defaultMarketNewsLimit
	}

	query := parsed.Query()
	query.Set("api_token", apiKey)
	query.Set("fmt", "json")
	query.Set("limit", strconv.Itoa(limit))
	if !since.IsZero() {
		query.Set("from", since.UTC().Format("2006-01-02"))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (m *MarketNewsScanner) get(ctx context.Context, endpoint string, v any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
