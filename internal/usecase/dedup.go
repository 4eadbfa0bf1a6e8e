package usecase

import (
	"context"
	"fmt"

	"NewsDesk/internal/ports"
)

// DedupGate tells whether a source article was already ingested.
type DedupGate struct {
	store ports.ArticleStore
}

// NewDedupGate wires the gate to the article store.
func NewDedupGate(store ports.ArticleStore) *DedupGate {
	return &DedupGate{store: store}
}

// Seen looks the externalId up; it must run before any enrichment work.
func (g *DedupGate) Seen(ctx context.Context, externalID string) (bool, error) {
	exists, err := g.store.ExistsByExternalID(ctx, externalID)
	if err != nil {
		return false, fmt.Errorf("lookup external id %s: %w", externalID, err)
	}
	return exists, nil
}
