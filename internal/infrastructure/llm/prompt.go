package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

const maxBodyRunes = 12000

// ErrEmptyResponse is returned when a provider answers without usable text.
var ErrEmptyResponse = errors.New("llm: empty response")

const defaultSystemPrompt = `You are a senior news editor. Rewrite the article you receive in original wording for a general business audience.
Keep every fact, figure and name from the source. Do not invent quotes or numbers.
Respond with a single JSON object and nothing else, using exactly these fields:
{
  "title": "rewritten headline, at most 110 characters",
  "excerpt": "one or two sentence summary",
  "content": [{"type": "paragraph", "text": "..."}, {"type": "heading", "text": "..."}, {"type": "list", "items": ["..."]}, {"type": "quote", "text": "..."}],
  "metaDescription": "search snippet, at most 160 characters",
  "seoKeywords": ["..."],
  "suggestedTags": ["..."]
}`

func systemPrompt(custom string) string {
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return defaultSystemPrompt
	}
	return custom
}

func userPrompt(title, body string) string {
	return fmt.Sprintf("Title: %s\n\nArticle:\n%s", strings.TrimSpace(title), truncateRunes(strings.TrimSpace(body), maxBodyRunes))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

type rewritePayload struct {
	Title           string                `json:"title"`
	Excerpt         string                `json:"excerpt"`
	Content         []domain.ContentBlock `json:"content"`
	MetaDescription string                `json:"metaDescription"`
	SEOKeywords     []string              `json:"seoKeywords"`
	SuggestedTags   []string              `json:"suggestedTags"`
}

// parseRewrite extracts the JSON object from a model reply. A reply without a
// title or without any usable block is treated as a decline (nil, nil).
func parseRewrite(text, model string) (*ports.Rewrite, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("llm: no JSON object in response")
	}

	var payload rewritePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("llm: decode rewrite: %w", err)
	}

	blocks := cleanBlocks(payload.Content)
	title := strings.TrimSpace(payload.Title)
	if title == "" || len(blocks) == 0 {
		return nil, nil
	}

	return &ports.Rewrite{
		Title:           title,
		Excerpt:         strings.TrimSpace(payload.Excerpt),
		Content:         blocks,
		MetaDescription: strings.TrimSpace(payload.MetaDescription),
		SEOKeywords:     trimAll(payload.SEOKeywords),
		SuggestedTags:   trimAll(payload.SuggestedTags),
		Model:           model,
	}, nil
}

// extractJSON strips markdown fences and returns the outermost object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func cleanBlocks(in []domain.ContentBlock) []domain.ContentBlock {
	out := make([]domain.ContentBlock, 0, len(in))
	for _, b := range in {
		b.Text = strings.TrimSpace(b.Text)
		switch b.Type {
		case domain.BlockHeading, domain.BlockQuote, domain.BlockParagraph:
		case domain.BlockList:
			b.Items = trimAll(b.Items)
			if len(b.Items) > 0 {
				out = append(out, b)
			}
			continue
		default:
			b.Type = domain.BlockParagraph
		}
		if b.Text != "" {
			out = append(out, b)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
