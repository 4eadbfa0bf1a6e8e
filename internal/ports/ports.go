package ports

import (
	"context"
	"time"

	"NewsDesk/internal/domain"
)

// ArticleSource pulls fresh articles from upstream providers.
type ArticleSource interface {
	Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawArticle, error)
	// Categories lists the category slugs the source can fetch.
	Categories() []string
}

// ArticleStore persists articles and answers the lookups the pipeline needs.
type ArticleStore interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// MaxSlugSuffix returns the highest n for which base-n is taken, or 0.
	MaxSlugSuffix(ctx context.Context, base string) (int, error)
	// CreateArticle writes the article, its category/tag links and its
	// analysis in one transaction. Unique violations surface as
	// domain.ErrSlugTaken or domain.ErrDuplicateArticle.
	CreateArticle(ctx context.Context, article *domain.Article) error
	// RecentArticles returns articles ordered by publish time, newest first.
	RecentArticles(ctx context.Context, limit int) ([]domain.ArticleRef, error)
}

// TaxonomyStore resolves categories and tags by slug.
type TaxonomyStore interface {
	GetOrCreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	GetOrCreateTag(ctx context.Context, tag domain.Tag) (domain.Tag, error)
}

// PlacementStore manages zones and their placements.
type PlacementStore interface {
	FindZone(ctx context.Context, zoneSlug, pageSlug string) (domain.Zone, error)
	// ReplacePlacements stages a new placement set and makes it visible atomically.
	ReplacePlacements(ctx context.Context, zone domain.Zone, articleIDs []string) error
	// AppendPlacement adds one placement at the end of the active set if the
	// zone has room and does not hold the article yet. It reports whether a row was added.
	AppendPlacement(ctx context.Context, zone domain.Zone, articleID string) (bool, error)
	ActivePlacements(ctx context.Context, zoneID string) ([]domain.Placement, error)
}

// BreakingNewsStore rotates the breaking-news singleton.
type BreakingNewsStore interface {
	RotateBreakingNews(ctx context.Context, headline, link string) (domain.BreakingNews, error)
	ActiveBreakingNews(ctx context.Context) (domain.BreakingNews, error)
}

// Rewriter asks an AI provider to rewrite an article. A nil result with a nil
// error means the provider declined.
type Rewriter interface {
	Rewrite(ctx context.Context, title, body string) (*Rewrite, error)
}

// Rewrite is the structured result of an AI rewrite.
type Rewrite struct {
	Title           string
	Excerpt         string
	Content         []domain.ContentBlock
	MetaDescription string
	SEOKeywords     []string
	SuggestedTags   []string
	Model           string
}

// Pacer bounds the call rate against an external provider.
type Pacer interface {
	Wait(ctx context.Context) error
}

// ActivityLogger records structured activity. Implementations must not fail the caller.
type ActivityLogger interface {
	Log(ctx context.Context, entry domain.ActivityEntry)
}

// Notifier announces breaking news to an outbound channel.
type Notifier interface {
	PublishBreaking(ctx context.Context, news domain.BreakingNews) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
