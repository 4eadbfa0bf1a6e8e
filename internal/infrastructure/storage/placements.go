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

// EnsureZone creates the (zone, page) row when absent and returns it.
func (s *Store) EnsureZone(ctx context.Context, zoneSlug, pageSlug string, capacity int) (domain.Zone, error) {
	insert := s.sb.Insert("page_zones").
		Columns("id", "zone_slug", "page_slug", "capacity", "active_generation").
		Values(uuid.NewString(), zoneSlug, pageSlug, capacity, 0).
		Suffix("ON CONFLICT (zone_slug, page_slug) DO NOTHING")
	if _, err := s.exec(ctx, s.db, insert); err != nil {
		return domain.Zone{}, fmt.Errorf("insert zone %s/%s: %w", pageSlug, zoneSlug, err)
	}
	return s.FindZone(ctx, zoneSlug, pageSlug)
}

// FindZone returns the zone row or domain.ErrZoneNotFound.
func (s *Store) FindZone(ctx context.Context, zoneSlug, pageSlug string) (domain.Zone, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select("id", "zone_slug", "page_slug", "capacity", "active_generation").
		From("page_zones").
		Where(sq.Eq{"zone_slug": zoneSlug, "page_slug": pageSlug}))
	if err != nil {
		return domain.Zone{}, err
	}

	var z domain.Zone
	err = row.Scan(&z.ID, &z.ZoneSlug, &z.PageSlug, &z.Capacity, &z.ActiveGeneration)
	if errors.Is(err, sql.ErrNoRows) {
		return z, fmt.Errorf("%s/%s: %w", pageSlug, zoneSlug, domain.ErrZoneNotFound)
	}
	if err != nil {
		return z, fmt.Errorf("load zone %s/%s: %w", pageSlug, zoneSlug, err)
	}
	return z, nil
}

// ListZones returns every zone of a page.
func (s *Store) ListZones(ctx context.Context, pageSlug string) ([]domain.Zone, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select("id", "zone_slug", "page_slug", "capacity", "active_generation").
		From("page_zones").
		Where(sq.Eq{"page_slug": pageSlug}).
		OrderBy("zone_slug"))
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.ZoneSlug, &z.PageSlug, &z.Capacity, &z.ActiveGeneration); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ReplacePlacements stages the new set under a freshly claimed generation,
// then flips the zone's active generation and drops older rows in one
// transaction. Readers see either the old or the new set, never an empty zone.
// When an overlapping refresh has already activated a newer generation, the
// staged set is discarded and the newer one stays visible.
func (s *Store) ReplacePlacements(ctx context.Context, zone domain.Zone, articleIDs []string) error {
	next, err := s.claimGeneration(ctx, zone.ID)
	if err != nil {
		return err
	}
	if err := s.stageGeneration(ctx, zone.ID, next, articleIDs); err != nil {
		s.discardGeneration(ctx, zone.ID, next)
		return err
	}
	activated, err := s.activateGeneration(ctx, zone.ID, next)
	if err != nil {
		return err
	}
	if !activated {
		s.discardGeneration(ctx, zone.ID, next)
	}
	return nil
}

// claimGeneration reserves a generation number no other refresh of the zone
// will use.
func (s *Store) claimGeneration(ctx context.Context, zoneID string) (int64, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Update("page_zones").
		Set("staged_generation", sq.Expr("staged_generation + 1")).
		Where(sq.Eq{"id": zoneID}).
		Suffix("RETURNING staged_generation"))
	if err != nil {
		return 0, err
	}
	var next int64
	switch err := row.Scan(&next); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, domain.ErrZoneNotFound
	case err != nil:
		return 0, fmt.Errorf("claim generation: %w", err)
	}
	return next, nil
}

func (s *Store) stageGeneration(ctx context.Context, zoneID string, generation int64, articleIDs []string) error {
	for pos, articleID := range articleIDs {
		insert := s.sb.Insert("content_placements").
			Columns("id", "zone_id", "article_id", "position", "is_pinned", "generation", "created_at").
			Values(uuid.NewString(), zoneID, articleID, pos, false, generation, s.now().UTC())
		if _, err := s.exec(ctx, s.db, insert); err != nil {
			return fmt.Errorf("stage placement %d: %w", pos, err)
		}
	}
	return nil
}

// activateGeneration makes generation visible unless a newer one already is.
func (s *Store) activateGeneration(ctx context.Context, zoneID string, generation int64) (bool, error) {
	activated := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		flip := s.sb.Update("page_zones").
			Set("active_generation", generation).
			Where(sq.And{sq.Eq{"id": zoneID}, sq.Lt{"active_generation": generation}})
		res, err := s.exec(ctx, tx, flip)
		if err != nil {
			return fmt.Errorf("activate generation %d: %w", generation, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("activate generation %d: %w", generation, err)
		}
		if n == 0 {
			return nil
		}
		activated = true

		purge := s.sb.Delete("content_placements").Where(sq.And{sq.Eq{"zone_id": zoneID}, sq.Lt{"generation": generation}})
		if _, err := s.exec(ctx, tx, purge); err != nil {
			return fmt.Errorf("purge stale placements: %w", err)
		}
		return nil
	})
	return activated, err
}

func (s *Store) discardGeneration(ctx context.Context, zoneID string, generation int64) {
	_, _ = s.exec(ctx, s.db, s.sb.Delete("content_placements").Where(sq.Eq{"zone_id": zoneID, "generation": generation}))
}

// AppendPlacement adds the article after the last active placement when the
// zone has room and does not hold it yet.
func (s *Store) AppendPlacement(ctx context.Context, zone domain.Zone, articleID string) (bool, error) {
	added := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row, err := s.queryRow(ctx, tx, s.sb.Select("z.capacity", "z.active_generation", "COUNT(p.id)", "COALESCE(MAX(p.position), -1)").
			Column(sq.Expr("COALESCE(SUM(CASE WHEN p.article_id = ? THEN 1 ELSE 0 END), 0)", articleID)).
			From("page_zones z").
			LeftJoin("content_placements p ON p.zone_id = z.id AND p.generation = z.active_generation").
			Where(sq.Eq{"z.id": zone.ID}).
			GroupBy("z.capacity", "z.active_generation"))
		if err != nil {
			return err
		}
		var (
			capacity, count, lastPos, already int
			generation                        int64
		)
		if err := row.Scan(&capacity, &generation, &count, &lastPos, &already); err != nil {
			return fmt.Errorf("load zone fill: %w", err)
		}
		if count >= capacity || already > 0 {
			return nil
		}

		insert := s.sb.Insert("content_placements").
			Columns("id", "zone_id", "article_id", "position", "is_pinned", "generation", "created_at").
			Values(uuid.NewString(), zone.ID, articleID, lastPos+1, false, generation, s.now().UTC())
		if _, err := s.exec(ctx, tx, insert); err != nil {
			return fmt.Errorf("insert placement: %w", err)
		}
		added = true
		return nil
	})
	return added, err
}

// ActivePlacements lists the visible placements of a zone in position order.
func (s *Store) ActivePlacements(ctx context.Context, zoneID string) ([]domain.Placement, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select("p.id", "p.zone_id", "p.article_id", "p.position", "p.is_pinned", "p.generation").
		From("content_placements p").
		Join("page_zones z ON z.id = p.zone_id AND z.active_generation = p.generation").
		Where(sq.Eq{"p.zone_id": zoneID}).
		OrderBy("p.position"))
	if err != nil {
		return nil, fmt.Errorf("query placements: %w", err)
	}
	defer rows.Close()

	var out []domain.Placement
	for rows.Next() {
		var p domain.Placement
		if err := rows.Scan(&p.ID, &p.ZoneID, &p.ArticleID, &p.Position, &p.IsPinned, &p.Generation); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
