package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// DefaultCategoryZone is the zone on each category page fed incrementally.
const DefaultCategoryZone = "category-feed"

// CategoryPlacer appends freshly imported articles to their category page.
// It only adds placements, it never clears them.
type CategoryPlacer struct {
	store    ports.PlacementStore
	zoneSlug string
	logger   *zap.Logger
}

// NewCategoryPlacer wires the placer; an empty zoneSlug uses DefaultCategoryZone.
func NewCategoryPlacer(store ports.PlacementStore, zoneSlug string, logger *zap.Logger) *CategoryPlacer {
	if zoneSlug == "" {
		zoneSlug = DefaultCategoryZone
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryPlacer{store: store, zoneSlug: zoneSlug, logger: logger}
}

// Place adds the article to the category page zone when there is room.
func (c *CategoryPlacer) Place(ctx context.Context, categorySlug, articleID string) (bool, error) {
	zone, err := c.store.FindZone(ctx, c.zoneSlug, categorySlug)
	if errors.Is(err, domain.ErrZoneNotFound) {
		c.logger.Debug("category zone missing", zap.String("page", categorySlug), zap.String("zone", c.zoneSlug))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find zone %s/%s: %w", categorySlug, c.zoneSlug, err)
	}

	added, err := c.store.AppendPlacement(ctx, zone, articleID)
	if err != nil {
		return false, fmt.Errorf("append placement %s/%s: %w", categorySlug, c.zoneSlug, err)
	}
	return added, nil
}
