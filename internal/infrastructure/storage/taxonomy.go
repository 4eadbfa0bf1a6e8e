package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsDesk/internal/domain"
)

// GetOrCreateCategory inserts the category unless its slug exists, then returns the stored row.
func (s *Store) GetOrCreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	insert := s.sb.Insert("categories").
		Columns("id", "slug", "name", "color", "created_at").
		Values(uuid.NewString(), c.Slug, c.Name, c.Color, s.now().UTC()).
		Suffix("ON CONFLICT (slug) DO NOTHING")
	if _, err := s.exec(ctx, s.db, insert); err != nil {
		return domain.Category{}, fmt.Errorf("insert category %s: %w", c.Slug, err)
	}

	row, err := s.queryRow(ctx, s.db, s.sb.Select("id", "slug", "name", "color").From("categories").Where(sq.Eq{"slug": c.Slug}))
	if err != nil {
		return domain.Category{}, err
	}
	var out domain.Category
	if err := row.Scan(&out.ID, &out.Slug, &out.Name, &out.Color); err != nil {
		return domain.Category{}, fmt.Errorf("load category %s: %w", c.Slug, err)
	}
	return out, nil
}

// GetOrCreateTag inserts the tag unless its slug exists, then returns the stored row.
func (s *Store) GetOrCreateTag(ctx context.Context, t domain.Tag) (domain.Tag, error) {
	insert := s.sb.Insert("tags").
		Columns("id", "slug", "name", "created_at").
		Values(uuid.NewString(), t.Slug, t.Name, s.now().UTC()).
		Suffix("ON CONFLICT (slug) DO NOTHING")
	if _, err := s.exec(ctx, s.db, insert); err != nil {
		return domain.Tag{}, fmt.Errorf("insert tag %s: %w", t.Slug, err)
	}

	row, err := s.queryRow(ctx, s.db, s.sb.Select("id", "slug", "name").From("tags").Where(sq.Eq{"slug": t.Slug}))
	if err != nil {
		return domain.Tag{}, err
	}
	var out domain.Tag
	if err := row.Scan(&out.ID, &out.Slug, &out.Name); err != nil {
		return domain.Tag{}, fmt.Errorf("load tag %s: %w", t.Slug, err)
	}
	return out, nil
}

// CategoryBySlug returns a stored category.
func (s *Store) CategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select("id", "slug", "name", "color").From("categories").Where(sq.Eq{"slug": slug}))
	if err != nil {
		return domain.Category{}, err
	}
	var out domain.Category
	err = row.Scan(&out.ID, &out.Slug, &out.Name, &out.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return out, fmt.Errorf("category %s: %w", slug, domain.ErrNotFound)
	}
	if err != nil {
		return out, fmt.Errorf("load category %s: %w", slug, err)
	}
	return out, nil
}
