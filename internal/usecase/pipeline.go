package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// DefaultWindow is how far back the general feed looks.
const DefaultWindow = 24 * time.Hour

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source   ports.ArticleSource
	Dedup    *DedupGate
	Enricher *Enricher
	Persist  *Persister
	Placer   *CategoryPlacer
	Zones    *ZoneRefresher
	Breaking *BreakingRotator
	Activity ports.ActivityLogger
	Logger   *zap.Logger
	Window   time.Duration
	Now      func() time.Time
}

// Pipeline implements the batch ingestion run.
type Pipeline struct {
	source   ports.ArticleSource
	dedup    *DedupGate
	enricher *Enricher
	persist  *Persister
	placer   *CategoryPlacer
	zones    *ZoneRefresher
	breaking *BreakingRotator
	activity ports.ActivityLogger
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:   deps.Source,
		dedup:    deps.Dedup,
		enricher: deps.Enricher,
		persist:  deps.Persist,
		placer:   deps.Placer,
		zones:    deps.Zones,
		breaking: deps.Breaking,
		activity: deps.Activity,
		logger:   deps.Logger,
		window:   deps.Window,
		now:      deps.Now,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.window <= 0 {
		p.window = DefaultWindow
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.enricher == nil {
		p.enricher = NewEnricher(nil, nil, nil, p.logger)
	}
	return p
}

// Categories lists the category slugs a category-scoped run accepts.
func (p *Pipeline) Categories() []string {
	if p.source == nil {
		return nil
	}
	return p.source.Categories()
}

// Run executes one batch. Per-article failures are recorded in the result;
// only setup failures (no source, fetch error, bad scope) are returned.
func (p *Pipeline) Run(ctx context.Context, scope domain.Scope) (domain.BatchResult, error) {
	result := domain.BatchResult{Details: []domain.ItemStatus{}}

	articles, err := p.fetch(ctx, scope)
	if err != nil {
		p.logActivity(ctx, domain.ActivityError, "ingestion setup failed", map[string]any{
			"category": scope.Category,
			"error":    err.Error(),
		})
		return result, err
	}
	result.Fetched = len(articles)

	var first *domain.ArticleRef
	for _, raw := range articles {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch interrupted: %w", err)
		}

		item, ref := p.processOne(ctx, scope, raw, &result)
		result.Details = append(result.Details, item)
		if ref != nil && first == nil {
			first = ref
		}
	}

	p.afterBatch(ctx, scope, first, &result)
	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context, scope domain.Scope) ([]domain.RawArticle, error) {
	if p.source == nil {
		return nil, domain.ErrNoSources
	}
	if p.dedup == nil || p.persist == nil {
		return nil, errors.New("pipeline has no article store")
	}
	if scope.Category != "" && !slices.Contains(p.source.Categories(), scope.Category) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCategory, scope.Category)
	}
	if scope.Since.IsZero() {
		scope.Since = p.now().Add(-p.window)
	}

	articles, err := p.source.Fetch(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	p.logger.Info("batch fetched",
		zap.String("category", scope.Category),
		zap.Time("since", scope.Since),
		zap.Int("count", len(articles)))
	return articles, nil
}

func (p *Pipeline) processOne(ctx context.Context, scope domain.Scope, raw domain.RawArticle, result *domain.BatchResult) (domain.ItemStatus, *domain.ArticleRef) {
	item := domain.ItemStatus{Title: raw.Title}
	log := p.logger.With(zap.String("external_id", raw.ExternalID()))

	seen, err := p.dedup.Seen(ctx, raw.ExternalID())
	if err != nil {
		return p.failed(log, item, err, result), nil
	}
	if seen {
		result.Skipped++
		item.Status = domain.StatusDuplicate
		return item, nil
	}

	enriched := p.enricher.Enrich(ctx, raw)
	if enriched.AIAttempted {
		result.AICalls++
	}

	article, err := p.persist.Persist(ctx, raw, enriched)
	if errors.Is(err, domain.ErrDuplicateArticle) {
		result.Skipped++
		item.Status = domain.StatusDuplicate
		return item, nil
	}
	if err != nil {
		return p.failed(log, item, err, result), nil
	}

	result.Imported++
	result.ImportedIDs = append(result.ImportedIDs, article.ID)
	if article.AIEnhanced {
		result.AIEnhanced++
	}
	item.Title = article.Title
	item.Status = domain.StatusImported
	log.Debug("article imported", zap.String("slug", article.Slug), zap.Bool("ai", article.AIEnhanced))

	if !scope.Homepage() && p.placer != nil {
		p.placeInCategories(ctx, raw, article.ID, log)
	}

	return item, &domain.ArticleRef{
		ID:          article.ID,
		Slug:        article.Slug,
		Title:       article.Title,
		PublishedAt: article.PublishedAt,
	}
}

func (p *Pipeline) failed(log *zap.Logger, item domain.ItemStatus, err error, result *domain.BatchResult) domain.ItemStatus {
	log.Error("article failed", zap.Error(err))
	result.Errors++
	item.Status = domain.ErrorStatus(err)
	return item
}

func (p *Pipeline) placeInCategories(ctx context.Context, raw domain.RawArticle, articleID string, log *zap.Logger) {
	pages := []string{TagSlug(raw.Category)}
	if raw.BusinessCategory != "" {
		pages = append(pages, TagSlug(raw.BusinessCategory))
	}
	for _, page := range pages {
		if page == "" {
			continue
		}
		if _, err := p.placer.Place(ctx, page, articleID); err != nil {
			log.Warn("category placement failed", zap.String("page", page), zap.Error(err))
		}
	}
}

func (p *Pipeline) afterBatch(ctx context.Context, scope domain.Scope, first *domain.ArticleRef, result *domain.BatchResult) {
	if scope.Homepage() && p.zones != nil {
		report, err := p.zones.Refresh(ctx, result.ImportedIDs)
		if err != nil {
			p.logger.Error("homepage refresh failed", zap.Error(err))
			p.logActivity(ctx, domain.ActivityError, "homepage refresh failed", map[string]any{"error": err.Error()})
		} else {
			p.logger.Info("homepage refreshed", zap.Any("placed", report.Placed), zap.Strings("skipped", report.Skipped))
		}
	}

	if p.breaking != nil {
		if _, err := p.breaking.Rotate(ctx, first); err != nil {
			p.logger.Error("breaking news rotation failed", zap.Error(err))
			p.logActivity(ctx, domain.ActivityError, "breaking news rotation failed", map[string]any{"error": err.Error()})
		}
	}

	p.logger.Info("batch finished",
		zap.String("category", scope.Category),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Int("ai_enhanced", result.AIEnhanced))

	p.logActivity(ctx, domain.ActivityImportSummary, fmt.Sprintf("imported %d articles", result.Imported), map[string]any{
		"category":   scope.Category,
		"imported":   result.Imported,
		"skipped":    result.Skipped,
		"errors":     result.Errors,
		"aiEnhanced": result.AIEnhanced,
	})
	p.logActivity(ctx, domain.ActivityAPIUsage, "upstream api usage", map[string]any{
		"articles": result.Fetched,
		"aiCalls":  result.AICalls,
	})
}

func (p *Pipeline) logActivity(ctx context.Context, kind domain.ActivityKind, message string, payload map[string]any) {
	if p.activity == nil {
		return
	}
	p.activity.Log(ctx, domain.ActivityEntry{
		Kind:    kind,
		Message: message,
		Payload: payload,
		At:      p.now().UTC(),
	})
}
