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

// RotateBreakingNews deactivates the current item and inserts the new active
// one in a single transaction.
func (s *Store) RotateBreakingNews(ctx context.Context, headline, link string) (domain.BreakingNews, error) {
	news := domain.BreakingNews{
		ID:       uuid.NewString(),
		Headline: headline,
		Link:     link,
		IsActive: true,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		deactivate := s.sb.Update("breaking_news").Set("is_active", false).Where(sq.Eq{"is_active": true})
		if _, err := s.exec(ctx, tx, deactivate); err != nil {
			return fmt.Errorf("deactivate breaking news: %w", err)
		}
		insert := s.sb.Insert("breaking_news").
			Columns("id", "headline", "link", "is_active", "created_at").
			Values(news.ID, news.Headline, news.Link, true, s.now().UTC())
		if _, err := s.exec(ctx, tx, insert); err != nil {
			return fmt.Errorf("insert breaking news: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.BreakingNews{}, err
	}
	return news, nil
}

// ActiveBreakingNews returns the active item or domain.ErrNotFound.
func (s *Store) ActiveBreakingNews(ctx context.Context) (domain.BreakingNews, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select("id", "headline", "link", "is_active").
		From("breaking_news").
		Where(sq.Eq{"is_active": true}))
	if err != nil {
		return domain.BreakingNews{}, err
	}

	var news domain.BreakingNews
	err = row.Scan(&news.ID, &news.Headline, &news.Link, &news.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return news, fmt.Errorf("breaking news: %w", domain.ErrNotFound)
	}
	if err != nil {
		return news, fmt.Errorf("load breaking news: %w", err)
	}
	return news, nil
}
