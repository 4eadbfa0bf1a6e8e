package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// ZoneReport summarizes one homepage refresh.
type ZoneReport struct {
	Placed  map[string]int
	Skipped []string
}

// ZoneRefresher rebuilds the fixed-capacity homepage zones.
type ZoneRefresher struct {
	articles   ports.ArticleStore
	placements ports.PlacementStore
	zones      []domain.ZoneSpec
	logger     *zap.Logger
}

// NewZoneRefresher wires the refresher; empty zones use domain.DefaultHomepageZones.
func NewZoneRefresher(articles ports.ArticleStore, placements ports.PlacementStore, zones []domain.ZoneSpec, logger *zap.Logger) *ZoneRefresher {
	if len(zones) == 0 {
		zones = domain.DefaultHomepageZones()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoneRefresher{articles: articles, placements: placements, zones: zones, logger: logger}
}

// Refresh fills the zones in declared order from one shared cursor over the
// candidate list, so no article lands in two zones.
func (z *ZoneRefresher) Refresh(ctx context.Context, importedIDs []string) (ZoneReport, error) {
	report := ZoneReport{Placed: map[string]int{}}

	candidates, err := z.candidates(ctx, importedIDs)
	if err != nil {
		return report, err
	}

	cursor := 0
	for _, spec := range z.zones {
		zone, err := z.placements.FindZone(ctx, spec.Slug, domain.HomepageSlug)
		if errors.Is(err, domain.ErrZoneNotFound) {
			z.logger.Warn("homepage zone missing, skipping", zap.String("zone", spec.Slug))
			report.Skipped = append(report.Skipped, spec.Slug)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("find zone %s: %w", spec.Slug, err)
		}

		end := cursor + spec.Capacity
		if end > len(candidates) {
			end = len(candidates)
		}
		ids := candidates[cursor:end]
		cursor = end

		if err := z.placements.ReplacePlacements(ctx, zone, ids); err != nil {
			return report, fmt.Errorf("replace placements %s: %w", spec.Slug, err)
		}
		report.Placed[spec.Slug] = len(ids)
	}
	return report, nil
}

// candidates keeps imported ids in import order and backfills with the most
// recently published articles, skipping ids already chosen.
func (z *ZoneRefresher) candidates(ctx context.Context, importedIDs []string) ([]string, error) {
	total := domain.TotalCapacity(z.zones)
	seen := make(map[string]struct{}, total)
	out := make([]string, 0, total)

	add := func(id string) {
		if len(out) >= total {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, id := range importedIDs {
		add(id)
	}
	if len(out) >= total {
		return out, nil
	}

	recent, err := z.articles.RecentArticles(ctx, total+len(out))
	if err != nil {
		return nil, fmt.Errorf("backfill recent articles: %w", err)
	}
	for _, ref := range recent {
		add(ref.ID)
	}
	return out, nil
}
