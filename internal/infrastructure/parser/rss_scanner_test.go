package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsDesk/internal/scanner"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Wire</title>
  <item>
    <title>Fresh Article</title>
    <link>https://example.com/fresh</link>
    <guid>fresh-1</guid>
    <pubDate>Sat, 08 Nov 2025 10:00:00 GMT</pubDate>
    <category>Economy</category>
    <category>Rates</category>
    <description><![CDATA[<p>First paragraph.</p><p>Second <b>bold</b> paragraph.</p>]]></description>
    <enclosure url="https://example.com/fresh.jpg" type="image/jpeg" length="1"/>
  </item>
  <item>
    <title>Old Article</title>
    <link>https://example.com/old</link>
    <guid>old-1</guid>
    <pubDate>Fri, 07 Nov 2025 10:00:00 GMT</pubDate>
    <description>Older text.</description>
  </item>
  <item>
    <title>Fresh Article duplicate</title>
    <guid>fresh-1</guid>
    <pubDate>Sat, 08 Nov 2025 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Linked only</title>
    <link>PAGE_URL</link>
    <pubDate>Sat, 08 Nov 2025 12:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

const samplePage = `<html><head><title>Linked only</title></head><body>
<article>
<h1>Linked only</h1>
<p>The full story starts here with enough words to be considered readable content by the extractor, because short pages are ignored by the scoring heuristics.</p>
<p>It continues with a second paragraph that also carries plenty of text, mentioning markets, rates, earnings and the outlook for the coming quarter in some detail.</p>
<p>A third paragraph adds quotes from analysts, who said the numbers were broadly in line with expectations, although guidance for next year remained cautious.</p>
<p>Finally, the fourth paragraph wraps up the story with a short summary of what happens next, so that the total length comfortably exceeds the threshold.</p>
</article>
</body></html>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(strings.Replace(sampleFeed, "PAGE_URL", server.URL+"/story", 1)))
		case "/story":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(samplePage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRSSScannerScan(t *testing.T) {
	t.Parallel()

	server := newFeedServer(t)
	sc := NewRSSScanner(server.Client(), nil)

	req := scanner.Request{
		Since:    time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC),
		SiteName: "wire",
		Categories: []scanner.Category{
			{Name: "economy", URL: server.URL + "/feed.xml"},
		},
	}

	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Fresh Article" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Body != "First paragraph.\n\nSecond bold paragraph." {
		t.Fatalf("unexpected body: %q", first.Body)
	}
	if first.Description != "First paragraph." {
		t.Fatalf("unexpected description: %q", first.Description)
	}
	if first.Source != "wire" || first.Category != "economy" {
		t.Fatalf("unexpected source/category: %s/%s", first.Source, first.Category)
	}
	if first.NativeID != shortHash("fresh-1") {
		t.Fatalf("unexpected native id: %s", first.NativeID)
	}
	if first.ImageURL != "https://example.com/fresh.jpg" {
		t.Fatalf("unexpected image: %s", first.ImageURL)
	}
	if len(first.Keywords) != 2 || first.Keywords[0] != "Economy" {
		t.Fatalf("unexpected keywords: %v", first.Keywords)
	}

	if articles[1].Body != "" {
		t.Fatalf("full text must stay off by default, got %q", articles[1].Body)
	}
}

func TestRSSScannerFullText(t *testing.T) {
	t.Parallel()

	server := newFeedServer(t)
	sc := NewRSSScanner(server.Client(), nil)

	req := scanner.Request{
		Since:      time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC),
		SiteName:   "wire",
		Categories: []scanner.Category{{Name: "economy", URL: server.URL + "/feed.xml"}},
		Options:    map[string]string{"fullText": "true"},
		Limit:      2,
	}

	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if !strings.Contains(articles[1].Body, "The full story starts here") {
		t.Fatalf("expected extracted page text, got %q", articles[1].Body)
	}
}

func TestRSSScannerErrors(t *testing.T) {
	t.Parallel()

	server := newFeedServer(t)
	sc := NewRSSScanner(server.Client(), nil)

	if _, err := sc.Scan(context.Background(), scanner.Request{SiteName: "wire"}); err == nil {
		t.Fatal("expected error without categories")
	}

	req := scanner.Request{
		SiteName:   "wire",
		Categories: []scanner.Category{{Name: "economy", URL: server.URL + "/missing.xml"}},
	}
	if _, err := sc.Scan(context.Background(), req); err == nil {
		t.Fatal("expected error for missing feed")
	}
}

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                                  "",
		"plain text":                        "plain text",
		"A\n\nONLY AVAILABLE IN PAID PLANS": "A\n\nONLY AVAILABLE IN PAID PLANS",
		"<div>no <i>paragraphs</i></div>":   "no paragraphs",
		"<ul><li>one</li><li>two</li></ul>": "one\n\ntwo",
		"<blockquote><p>quoted</p></blockquote><p>after</p>": "quoted\n\nafter",
	}
	for in, want := range cases {
		if got := htmlToText(in); got != want {
			t.Fatalf("htmlToText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	got := splitLines("  First line \n\n\n   second   line\n")
	if got != "First line\n\nsecond line" {
		t.Fatalf("unexpected result: %q", got)
	}
}
