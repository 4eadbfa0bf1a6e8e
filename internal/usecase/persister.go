package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

const (
	defaultSlugAttempts = 5
	sentimentThreshold  = 0.15
)

// PersisterDeps wires the collaborators of the article persister.
type PersisterDeps struct {
	Store    ports.ArticleStore
	Taxonomy *TaxonomyResolver
	Slugs    *SlugAllocator
	Logger   *zap.Logger
	Now      func() time.Time
}

// Persister performs the single durable create of an enriched article.
type Persister struct {
	store    ports.ArticleStore
	taxonomy *TaxonomyResolver
	slugs    *SlugAllocator
	attempts int
	logger   *zap.Logger
	now      func() time.Time
}

// NewPersister builds a persister.
func NewPersister(deps PersisterDeps) *Persister {
	p := &Persister{
		store:    deps.Store,
		taxonomy: deps.Taxonomy,
		slugs:    deps.Slugs,
		attempts: defaultSlugAttempts,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Persist resolves taxonomy, allocates a slug and writes the article. A slug
// conflict at insert time re-allocates and retries; an externalId conflict
// returns domain.ErrDuplicateArticle.
func (p *Persister) Persist(ctx context.Context, raw domain.RawArticle, enriched Enriched) (*domain.Article, error) {
	article := &domain.Article{
		ExternalID:      raw.ExternalID(),
		Title:           enriched.Title,
		Excerpt:         enriched.Excerpt,
		MetaDescription: enriched.MetaDescription,
		Content:         enriched.Content,
		SourceURL:       raw.URL,
		ImageURL:        raw.ImageURL,
		PublishedAt:     raw.PublishedAt.UTC(),
		AIEnhanced:      enriched.AIEnhanced,
		CreatedAt:       p.now().UTC(),
	}
	if article.PublishedAt.IsZero() {
		article.PublishedAt = article.CreatedAt
	}

	if err := p.linkCategories(ctx, raw, article); err != nil {
		return nil, err
	}

	tagIDs, err := p.taxonomy.ResolveTags(ctx, enriched.Keywords)
	if err != nil {
		return nil, err
	}
	article.TagIDs = tagIDs

	if raw.HasSignal() {
		article.Analysis = analysisFromSignal(raw)
	}

	for attempt := 1; attempt <= p.attempts; attempt++ {
		slug, err := p.slugs.Allocate(ctx, article.Title)
		if err != nil {
			return nil, err
		}
		article.ID = uuid.NewString()
		article.Slug = slug

		err = p.store.CreateArticle(ctx, article)
		if err == nil {
			return article, nil
		}
		if !errors.Is(err, domain.ErrSlugTaken) {
			return nil, err
		}
		p.logger.Info("slug taken concurrently, retrying",
			zap.String("slug", slug), zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("create article %q after %d attempts: %w", article.Title, p.attempts, domain.ErrSlugTaken)
}

func (p *Persister) linkCategories(ctx context.Context, raw domain.RawArticle, article *domain.Article) error {
	if raw.BusinessCategory == "" {
		primary, err := p.taxonomy.ResolveCategory(ctx, raw.Category)
		if err != nil {
			return err
		}
		article.CategoryID = primary.ID
		article.CategoryIDs = []string{primary.ID}
		return nil
	}

	marketsSlug := raw.Category
	if marketsSlug == "" {
		marketsSlug = "markets"
	}
	markets, err := p.taxonomy.ResolveCategory(ctx, marketsSlug)
	if err != nil {
		return err
	}
	business, err := p.taxonomy.ResolveCategory(ctx, raw.BusinessCategory)
	if err != nil {
		return err
	}
	article.MarketsCategoryID = markets.ID
	article.BusinessCategoryID = business.ID
	article.CategoryIDs = []string{markets.ID}
	if business.ID != markets.ID {
		article.CategoryIDs = append(article.CategoryIDs, business.ID)
	}
	return nil
}

func analysisFromSignal(raw domain.RawArticle) *domain.Analysis {
	a := &domain.Analysis{
		Sentiment:        "neutral",
		MentionedTickers: append([]string(nil), raw.Tickers...),
		BusinessCategory: raw.BusinessCategory,
		Model:            raw.Source + "-sentiment",
	}
	if len(raw.Tickers) > 0 {
		a.PrimaryTicker = raw.Tickers[0]
	}
	if s := raw.Sentiment; s != nil {
		a.SentimentScore = s.Polarity
		switch {
		case s.Polarity > sentimentThreshold:
			a.Sentiment = "positive"
		case s.Polarity < -sentimentThreshold:
			a.Sentiment = "negative"
		}
		a.Confidence = math.Max(s.Positive, math.Max(s.Negative, s.Neutral))
		if a.Confidence == 0 {
			a.Confidence = math.Abs(s.Polarity)
		}
	}
	return a
}
