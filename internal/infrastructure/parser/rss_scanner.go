package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/scanner"
)

const userAgent = "NewsDesk/1.0"

// RSSScanner reads RSS/Atom feeds, one feed URL per category.
type RSSScanner struct {
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewRSSScanner wires an HTTP client shared by feed and page fetches.
func NewRSSScanner(client *http.Client, logger *zap.Logger) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSSScanner{client: client, logger: logger.With(zap.String("component", "rss")), now: time.Now}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan parses every category feed and returns items published after req.Since.
// Option "fullText" set to "true" fetches the linked page when an item has no body.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawArticle, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	fullText := strings.EqualFold(req.Options["fullText"], "true")
	results := make([]domain.RawArticle, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		feed, err := r.fetchFeed(ctx, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		taken := 0
		for _, item := range feed.Items {
			if req.Limit > 0 && taken >= req.Limit {
				break
			}
			raw, ok := r.toRaw(item, req.SiteName, cat.Name)
			if !ok || (!req.Since.IsZero() && raw.PublishedAt.Before(req.Since)) {
				continue
			}
			if _, dup := seen[raw.NativeID]; dup {
				continue
			}
			seen[raw.NativeID] = struct{}{}

			if raw.Body == "" && fullText && raw.URL != "" {
				if text, err := r.fetchFullText(ctx, raw.URL); err != nil {
					r.logger.Debug("full text unavailable", zap.String("url", raw.URL), zap.Error(err))
				} else {
					raw.Body = text
				}
			}

			results = append(results, raw)
			taken++
		}
	}

	return results, nil
}

func (r *RSSScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.Client = r.client
	fp.UserAgent = userAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return feed, nil
}

func (r *RSSScanner) toRaw(item *gofeed.Item, siteName, category string) (domain.RawArticle, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.RawArticle{}, false
	}

	key := strings.TrimSpace(item.GUID)
	if key == "" {
		key = strings.TrimSpace(item.Link)
	}
	if key == "" {
		key = title
	}

	published := r.now().UTC()
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	}

	description := htmlToText(item.Description)
	body := htmlToText(item.Content)
	if body == "" {
		body = description
	}

	return domain.RawArticle{
		Source:      siteName,
		NativeID:    shortHash(key),
		Title:       title,
		Body:        body,
		Description: firstParagraph(description),
		Keywords:    item.Categories,
		URL:         item.Link,
		ImageURL:    itemImage(item),
		PublishedAt: published,
		Category:    category,
	}, true
}

func (r *RSSScanner) fetchFullText(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}
	return splitLines(article.TextContent), nil
}

// splitLines rejoins non-empty lines as blank-line separated paragraphs.
func splitLines(text string) string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// htmlToText turns an HTML fragment into blank-line separated paragraphs.
func htmlToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	if !strings.Contains(fragment, "<") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var paragraphs []string
	doc.Find("p, li, h1, h2, h3, h4, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p").Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	return strings.Join(paragraphs, "\n\n")
}

func firstParagraph(text string) string {
	first, _, _ := strings.Cut(text, "\n\n")
	return strings.TrimSpace(first)
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func shortHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
