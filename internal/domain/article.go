package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawArticle is a normalized item returned by a source adapter before enrichment.
type RawArticle struct {
	Source      string
	NativeID    string
	Title       string
	Body        string
	Description string
	Keywords    []string
	URL         string
	ImageURL    string
	PublishedAt time.Time

	// Category is the slug of the site category the item was fetched for.
	Category string
	// BusinessCategory, when set, makes the article dual-classified:
	// Category becomes the markets category and this the business one.
	BusinessCategory string

	Tickers   []string
	Sentiment *Sentiment
}

// Sentiment is structured signal delivered by providers that score their news.
type Sentiment struct {
	Polarity float64
	Negative float64
	Neutral  float64
	Positive float64
}

// ExternalID builds the idempotency key "{source}-{nativeId}".
func (r RawArticle) ExternalID() string {
	return ExternalID(r.Source, r.NativeID)
}

// HasSignal reports whether the provider already scored the article.
func (r RawArticle) HasSignal() bool {
	return r.Sentiment != nil || len(r.Tickers) > 0
}

// ExternalID normalizes the source name and joins it with the native id.
func ExternalID(source, nativeID string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	return fmt.Sprintf("%s-%s", source, strings.TrimSpace(nativeID))
}

// BlockType enumerates content block kinds.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockQuote     BlockType = "quote"
	BlockList      BlockType = "list"
)

// ContentBlock is one ordered element of an article body.
type ContentBlock struct {
	Type  BlockType `json:"type"`
	Text  string    `json:"text,omitempty"`
	Items []string  `json:"items,omitempty"`
}

// Paragraph wraps text as a paragraph block.
func Paragraph(text string) ContentBlock {
	return ContentBlock{Type: BlockParagraph, Text: text}
}

// Article is the persisted content item.
type Article struct {
	ID                 string
	Slug               string
	ExternalID         string
	Title              string
	Excerpt            string
	MetaDescription    string
	Content            []ContentBlock
	SourceURL          string
	ImageURL           string
	PublishedAt        time.Time
	CategoryID         string
	MarketsCategoryID  string
	BusinessCategoryID string
	CategoryIDs        []string
	TagIDs             []string
	AIEnhanced         bool
	Analysis           *Analysis
	CreatedAt          time.Time
}

// DualCategory reports whether the article uses the markets/business pair.
func (a Article) DualCategory() bool {
	return a.MarketsCategoryID != "" && a.BusinessCategoryID != ""
}

// Analysis is the one-to-one structured signal attached to an article.
type Analysis struct {
	Sentiment        string
	SentimentScore   float64
	Confidence       float64
	PrimaryTicker    string
	MentionedTickers []string
	BusinessCategory string
	Model            string
}

// ArticleRef is the minimal projection used by placement and breaking news.
type ArticleRef struct {
	ID          string
	Slug        string
	Title       string
	PublishedAt time.Time
}
