package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

var (
	_ ports.ArticleStore      = (*Store)(nil)
	_ ports.TaxonomyStore     = (*Store)(nil)
	_ ports.PlacementStore    = (*Store)(nil)
	_ ports.BreakingNewsStore = (*Store)(nil)
)

// ExistsByExternalID reports whether an article with the idempotency key exists.
func (s *Store) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	return s.exists(ctx, "articles", sq.Eq{"external_id": externalID})
}

// SlugExists reports whether an article already uses slug.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, "articles", sq.Eq{"slug": slug})
}

// MaxSlugSuffix returns the highest numeric suffix in use for base, 0 when
// no base-n slug exists.
func (s *Store) MaxSlugSuffix(ctx context.Context, base string) (int, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select("slug").From("articles").
		Where(sq.Expr("slug LIKE ? ESCAPE '!'", likePrefix(base+"-"))))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	highest := 0
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return 0, fmt.Errorf("scan slug: %w", err)
		}
		if n, ok := slugSuffix(slug, base); ok && n > highest {
			highest = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("list slugs: %w", err)
	}
	return highest, nil
}

// likePrefix escapes LIKE wildcards with '!' and appends '%'.
func likePrefix(prefix string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(prefix) + "%"
}

// slugSuffix parses n from base-n; other slugs sharing the prefix are ignored.
func slugSuffix(slug, base string) (int, bool) {
	rest, ok := strings.CutPrefix(slug, base+"-")
	if !ok || rest == "" || strings.TrimLeft(rest, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Store) exists(ctx context.Context, table string, pred sq.Eq) (bool, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select("1").From(table).Where(pred).Limit(1))
	if err != nil {
		return false, err
	}
	var one int
	switch err := row.Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query %s: %w", table, err)
	}
	return true, nil
}

// CreateArticle inserts the article with its category links, tag links and
// analysis in a single transaction.
func (s *Store) CreateArticle(ctx context.Context, a *domain.Article) error {
	content, err := json.Marshal(a.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		insert := s.sb.Insert("articles").
			Columns("id", "slug", "external_id", "title", "excerpt", "meta_description", "content",
				"source_url", "image_url", "published_at", "category_id", "markets_category_id",
				"business_category_id", "ai_enhanced", "created_at").
			Values(a.ID, a.Slug, nullString(a.ExternalID), a.Title, a.Excerpt, a.MetaDescription, string(content),
				a.SourceURL, a.ImageURL, a.PublishedAt.UTC(), nullString(a.CategoryID), nullString(a.MarketsCategoryID),
				nullString(a.BusinessCategoryID), a.AIEnhanced, a.CreatedAt)
		if _, err := s.exec(ctx, tx, insert); err != nil {
			return err
		}

		for _, categoryID := range a.CategoryIDs {
			link := s.sb.Insert("article_categories").Columns("article_id", "category_id").Values(a.ID, categoryID)
			if _, err := s.exec(ctx, tx, link); err != nil {
				return fmt.Errorf("link category %s: %w", categoryID, err)
			}
		}

		for _, tagID := range a.TagIDs {
			link := s.sb.Insert("article_tags").Columns("article_id", "tag_id").Values(a.ID, tagID)
			if _, err := s.exec(ctx, tx, link); err != nil {
				return fmt.Errorf("link tag %s: %w", tagID, err)
			}
		}

		if a.Analysis != nil {
			if err := s.insertAnalysis(ctx, tx, a.ID, a.Analysis); err != nil {
				return err
			}
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case violates(err, "articles", "external_id"):
		return fmt.Errorf("%w: %s", domain.ErrDuplicateArticle, a.ExternalID)
	case violates(err, "articles", "slug"):
		return fmt.Errorf("%w: %s", domain.ErrSlugTaken, a.Slug)
	default:
		return fmt.Errorf("create article: %w", err)
	}
}

func (s *Store) insertAnalysis(ctx context.Context, tx *sql.Tx, articleID string, an *domain.Analysis) error {
	tickers, err := json.Marshal(nonNil(an.MentionedTickers))
	if err != nil {
		return fmt.Errorf("marshal tickers: %w", err)
	}
	insert := s.sb.Insert("article_analyses").
		Columns("id", "article_id", "sentiment", "sentiment_score", "confidence", "primary_ticker",
			"mentioned_tickers", "business_category", "model", "created_at").
		Values(uuid.NewString(), articleID, an.Sentiment, an.SentimentScore, an.Confidence, an.PrimaryTicker,
			string(tickers), an.BusinessCategory, an.Model, s.now().UTC())
	if _, err := s.exec(ctx, tx, insert); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// RecentArticles returns the newest articles by publish time.
func (s *Store) RecentArticles(ctx context.Context, limit int) ([]domain.ArticleRef, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, s.db, s.sb.Select("id", "slug", "title", "published_at").
		From("articles").
		OrderBy("published_at DESC", "created_at DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	defer rows.Close()

	var refs []domain.ArticleRef
	for rows.Next() {
		var ref domain.ArticleRef
		if err := rows.Scan(&ref.ID, &ref.Slug, &ref.Title, &ref.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan recent article: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return refs, nil
}

// ArticleBySlug loads an article with its links and analysis.
func (s *Store) ArticleBySlug(ctx context.Context, slug string) (domain.Article, error) {
	var (
		a                                   domain.Article
		externalID, category, markets, busi sql.NullString
		content                             string
	)
	row, err := s.queryRow(ctx, s.db, s.sb.Select("id", "slug", "external_id", "title", "excerpt", "meta_description",
		"content", "source_url", "image_url", "published_at", "category_id", "markets_category_id",
		"business_category_id", "ai_enhanced", "created_at").
		From("articles").Where(sq.Eq{"slug": slug}))
	if err != nil {
		return a, err
	}
	err = row.Scan(&a.ID, &a.Slug, &externalID, &a.Title, &a.Excerpt, &a.MetaDescription, &content,
		&a.SourceURL, &a.ImageURL, &a.PublishedAt, &category, &markets, &busi, &a.AIEnhanced, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("article %s: %w", slug, domain.ErrNotFound)
	}
	if err != nil {
		return a, fmt.Errorf("scan article: %w", err)
	}
	a.ExternalID, a.CategoryID, a.MarketsCategoryID, a.BusinessCategoryID = externalID.String, category.String, markets.String, busi.String
	if err := json.Unmarshal([]byte(content), &a.Content); err != nil {
		return a, fmt.Errorf("unmarshal content: %w", err)
	}

	if a.CategoryIDs, err = s.linkedIDs(ctx, "article_categories", "category_id", a.ID); err != nil {
		return a, err
	}
	if a.TagIDs, err = s.linkedIDs(ctx, "article_tags", "tag_id", a.ID); err != nil {
		return a, err
	}
	a.Analysis, err = s.analysis(ctx, a.ID)
	return a, err
}

func (s *Store) linkedIDs(ctx context.Context, table, column, articleID string) ([]string, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select(column).From(table).Where(sq.Eq{"article_id": articleID}).OrderBy(column))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) analysis(ctx context.Context, articleID string) (*domain.Analysis, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select("sentiment", "sentiment_score", "confidence", "primary_ticker",
		"mentioned_tickers", "business_category", "model").
		From("article_analyses").Where(sq.Eq{"article_id": articleID}))
	if err != nil {
		return nil, err
	}
	var (
		an      domain.Analysis
		tickers string
	)
	err = row.Scan(&an.Sentiment, &an.SentimentScore, &an.Confidence, &an.PrimaryTicker, &tickers, &an.BusinessCategory, &an.Model)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(tickers), &an.MentionedTickers); err != nil {
		return nil, fmt.Errorf("unmarshal tickers: %w", err)
	}
	return &an, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
