package usecase

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// DefaultPaywallMarkers are phrases providers put in place of truncated text.
var DefaultPaywallMarkers = []string{"ONLY AVAILABLE IN PAID PLANS"}

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Enriched is the output of the enrichment ladder.
type Enriched struct {
	Title           string
	Excerpt         string
	Content         []domain.ContentBlock
	MetaDescription string
	Keywords        []string
	AIEnhanced      bool
	// AIAttempted is true when the rewriter was actually called.
	AIAttempted bool
	Model       string
}

// Enricher runs the AI rewrite and falls back to parsing the raw body.
type Enricher struct {
	rewriter ports.Rewriter
	pacer    ports.Pacer
	markers  []string
	logger   *zap.Logger
}

// NewEnricher builds the ladder; rewriter and pacer may be nil.
func NewEnricher(rewriter ports.Rewriter, pacer ports.Pacer, markers []string, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(markers) == 0 {
		markers = DefaultPaywallMarkers
	}
	return &Enricher{rewriter: rewriter, pacer: pacer, markers: markers, logger: logger}
}

// Enrich never fails: it always returns a non-empty excerpt and content.
func (e *Enricher) Enrich(ctx context.Context, raw domain.RawArticle) Enriched {
	out := Enriched{Title: raw.Title}

	if rw := e.tryRewrite(ctx, raw, &out); rw != nil {
		out.AIEnhanced = true
		out.Model = rw.Model
		if t := strings.TrimSpace(rw.Title); t != "" {
			out.Title = t
		}
		out.Excerpt = strings.TrimSpace(rw.Excerpt)
		if out.Excerpt == "" {
			out.Excerpt = fallbackExcerpt(raw)
		}
		out.Content = rw.Content
		out.MetaDescription = strings.TrimSpace(rw.MetaDescription)
		out.Keywords = unionKeywords(raw.Keywords, rw.SuggestedTags)
		return out
	}

	out.Excerpt = fallbackExcerpt(raw)
	out.Content = FallbackBlocks(raw.Body, raw.Description, raw.Title, e.markers)
	out.Keywords = unionKeywords(raw.Keywords, nil)
	return out
}

func (e *Enricher) tryRewrite(ctx context.Context, raw domain.RawArticle, out *Enriched) *ports.Rewrite {
	if e.rewriter == nil || strings.TrimSpace(raw.Body) == "" {
		return nil
	}
	if e.pacer != nil {
		if err := e.pacer.Wait(ctx); err != nil {
			e.logger.Warn("ai pacing interrupted, using raw content", zap.Error(err))
			return nil
		}
	}

	out.AIAttempted = true
	rw, err := e.rewriter.Rewrite(ctx, raw.Title, raw.Body)
	if err != nil {
		e.logger.Warn("ai rewrite failed, using raw content",
			zap.String("external_id", raw.ExternalID()), zap.Error(err))
		return nil
	}
	if rw == nil || len(rw.Content) == 0 {
		return nil
	}
	return rw
}

func fallbackExcerpt(raw domain.RawArticle) string {
	if d := strings.TrimSpace(raw.Description); d != "" {
		return d
	}
	return strings.TrimSpace(raw.Title)
}

// FallbackBlocks splits body on blank lines, drops empty and paywalled
// paragraphs and wraps the rest as paragraph blocks. With no body at all it
// emits the description (or title) as the single paragraph. When all three
// are blank the result is empty rather than holding an empty paragraph.
func FallbackBlocks(body, description, title string, markers []string) []domain.ContentBlock {
	var blocks []domain.ContentBlock
	if strings.TrimSpace(body) != "" {
		for _, part := range blankLine.Split(strings.ReplaceAll(body, "\r\n", "\n"), -1) {
			part = strings.TrimSpace(part)
			if part == "" || containsAny(part, markers) {
				continue
			}
			blocks = append(blocks, domain.Paragraph(part))
		}
	}
	if len(blocks) > 0 {
		return blocks
	}

	text := strings.TrimSpace(description)
	if text == "" {
		text = strings.TrimSpace(title)
	}
	if text == "" {
		return []domain.ContentBlock{}
	}
	return []domain.ContentBlock{domain.Paragraph(text)}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func unionKeywords(original, suggested []string) []string {
	seen := make(map[string]struct{}, len(original)+len(suggested))
	out := make([]string, 0, len(original)+len(suggested))
	for _, list := range [][]string{original, suggested} {
		for _, k := range list {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			key := strings.ToLower(k)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
