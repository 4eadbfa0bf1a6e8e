package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// DefaultArticleBasePath prefixes article slugs in breaking-news links.
const DefaultArticleBasePath = "/news/"

// BreakingRotator replaces the active breaking-news row.
type BreakingRotator struct {
	articles ports.ArticleStore
	store    ports.BreakingNewsStore
	notifier ports.Notifier
	basePath string
	logger   *zap.Logger
}

// NewBreakingRotator wires the rotator; notifier may be nil.
func NewBreakingRotator(articles ports.ArticleStore, store ports.BreakingNewsStore, notifier ports.Notifier, basePath string, logger *zap.Logger) *BreakingRotator {
	if basePath == "" {
		basePath = DefaultArticleBasePath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakingRotator{articles: articles, store: store, notifier: notifier, basePath: basePath, logger: logger}
}

// Rotate promotes candidate, or the newest stored article when candidate is
// nil. It reports false without touching storage when there is nothing to promote.
func (b *BreakingRotator) Rotate(ctx context.Context, candidate *domain.ArticleRef) (bool, error) {
	if candidate == nil {
		recent, err := b.articles.RecentArticles(ctx, 1)
		if err != nil {
			return false, fmt.Errorf("load newest article: %w", err)
		}
		if len(recent) == 0 {
			return false, nil
		}
		candidate = &recent[0]
	}

	news, err := b.store.RotateBreakingNews(ctx, candidate.Title, b.Link(candidate.Slug))
	if err != nil {
		return false, fmt.Errorf("rotate breaking news: %w", err)
	}

	if b.notifier != nil {
		if err := b.notifier.PublishBreaking(ctx, news); err != nil {
			b.logger.Warn("breaking news notification failed", zap.Error(err))
		}
	}
	return true, nil
}

// Link builds the public link for an article slug.
func (b *BreakingRotator) Link(slug string) string {
	return strings.TrimSuffix(b.basePath, "/") + "/" + slug
}
