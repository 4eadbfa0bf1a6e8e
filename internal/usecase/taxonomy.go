package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

const (
	// DefaultMaxTags caps tag fan-out per article.
	DefaultMaxTags      = 5
	defaultCategoryHue  = "#6B7280"
	defaultCategorySlug = "news"
)

type categoryPreset struct {
	name  string
	color string
}

var categoryPresets = map[string]categoryPreset{
	"markets":    {name: "Markets", color: "#2563EB"},
	"business":   {name: "Business", color: "#059669"},
	"economy":    {name: "Economy", color: "#D97706"},
	"technology": {name: "Technology", color: "#7C3AED"},
	"crypto":     {name: "Crypto", color: "#F59E0B"},
	"world":      {name: "World", color: "#DC2626"},
	"politics":   {name: "Politics", color: "#4B5563"},
	"news":       {name: "News", color: "#0EA5E9"},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^\w-]`)
	titleCaser    = cases.Title(language.English)
)

// TaxonomyResolver gets or creates categories and tags by slug.
type TaxonomyResolver struct {
	store   ports.TaxonomyStore
	maxTags int
}

// NewTaxonomyResolver wires the resolver; maxTags <= 0 falls back to DefaultMaxTags.
func NewTaxonomyResolver(store ports.TaxonomyStore, maxTags int) *TaxonomyResolver {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	return &TaxonomyResolver{store: store, maxTags: maxTags}
}

// ResolveCategory returns the category for slug, creating it on first use.
func (r *TaxonomyResolver) ResolveCategory(ctx context.Context, slug string) (domain.Category, error) {
	slug = TagSlug(slug)
	if slug == "" {
		slug = defaultCategorySlug
	}
	category, err := r.store.GetOrCreateCategory(ctx, CategoryFor(slug))
	if err != nil {
		return domain.Category{}, fmt.Errorf("resolve category %s: %w", slug, err)
	}
	return category, nil
}

// ResolveTags turns up to maxTags keywords into tag ids.
func (r *TaxonomyResolver) ResolveTags(ctx context.Context, keywords []string) ([]string, error) {
	if len(keywords) > r.maxTags {
		keywords = keywords[:r.maxTags]
	}

	ids := make([]string, 0, len(keywords))
	seen := map[string]struct{}{}
	for _, keyword := range keywords {
		slug := TagSlug(keyword)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}

		tag, err := r.store.GetOrCreateTag(ctx, domain.Tag{Slug: slug, Name: strings.TrimSpace(keyword)})
		if err != nil {
			return nil, fmt.Errorf("resolve tag %s: %w", slug, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// CategoryFor derives display name and color for a category slug.
func CategoryFor(slug string) domain.Category {
	if preset, ok := categoryPresets[slug]; ok {
		return domain.Category{Slug: slug, Name: preset.name, Color: preset.color}
	}
	return domain.Category{
		Slug:  slug,
		Name:  titleCaser.String(strings.ReplaceAll(slug, "-", " ")),
		Color: defaultCategoryHue,
	}
}

// TagSlug lowercases, hyphenates whitespace and strips everything but word characters and hyphens.
func TagSlug(keyword string) string {
	s := strings.ToLower(strings.TrimSpace(keyword))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}
