package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

func newTestPipeline(store *memStore, source ports.ArticleSource, rewriter ports.Rewriter, activity ports.ActivityLogger) *Pipeline {
	now := func() time.Time { return fixedNow }
	return NewPipeline(PipelineDeps{
		Source:   source,
		Dedup:    NewDedupGate(store),
		Enricher: NewEnricher(rewriter, nil, nil, nil),
		Persist: NewPersister(PersisterDeps{
			Store:    store,
			Taxonomy: NewTaxonomyResolver(store, 0),
			Slugs:    NewSlugAllocator(store),
			Now:      now,
		}),
		Placer:   NewCategoryPlacer(store, "", nil),
		Zones:    NewZoneRefresher(store, store, nil, nil),
		Breaking: NewBreakingRotator(store, store, nil, "", nil),
		Activity: activity,
		Now:      now,
	})
}

func TestRunEndToEnd(t *testing.T) {
	store := newMemStore()
	seedHomepage(store)
	store.articles = append(store.articles, &domain.Article{ID: "old", ExternalID: "wire-1", Slug: "story-number-1"})

	source := &fakeSource{
		articles:   []domain.RawArticle{rawArticle(1, "world"), rawArticle(2, "world"), rawArticle(3, "world")},
		categories: []string{"world"},
	}
	rewriter := rewriterFunc(func(_ context.Context, title, _ string) (*ports.Rewrite, error) {
		if title == "Story number 2" {
			return &ports.Rewrite{Title: "Rewritten two", Content: []domain.ContentBlock{domain.Paragraph("AI text")}, Model: "m"}, nil
		}
		return nil, nil
	})
	activity := &recordingActivity{}

	result, err := newTestPipeline(store, source, rewriter, activity).Run(context.Background(), domain.Scope{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 1, result.AIEnhanced)
	assert.Equal(t, 2, result.AICalls)
	assert.Equal(t, []domain.ItemStatus{
		{Title: "Story number 1", Status: domain.StatusDuplicate},
		{Title: "Rewritten two", Status: domain.StatusImported},
		{Title: "Story number 3", Status: domain.StatusImported},
	}, result.Details)

	three := store.articleByExternalID("wire-3")
	require.NotNil(t, three)
	assert.False(t, three.AIEnhanced)
	assert.Equal(t, []domain.ContentBlock{domain.Paragraph("Paragraph one of 3."), domain.Paragraph("Paragraph two of 3.")}, three.Content)

	// homepage holds the two imports first
	hero := store.placedIDs("homepage/hero-featured")
	require.Len(t, hero, 3)
	assert.Equal(t, result.ImportedIDs, hero[:2])

	active, err := store.ActiveBreakingNews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rewritten two", active.Headline)

	assert.Equal(t, []domain.ActivityKind{domain.ActivityImportSummary, domain.ActivityAPIUsage}, activity.kinds())
	assert.Equal(t, map[string]any{"articles": 3, "aiCalls": 2}, activity.entries[1].Payload)
	require.Len(t, source.scopes, 1)
	assert.Equal(t, fixedNow.Add(-DefaultWindow), source.scopes[0].Since)
}

func TestRunIsIdempotent(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{articles: []domain.RawArticle{rawArticle(1, "world")}, categories: []string{"world"}}
	p := newTestPipeline(store, source, nil, nil)

	first, err := p.Run(context.Background(), domain.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := p.Run(context.Background(), domain.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, domain.StatusDuplicate, second.Details[0].Status)
	assert.Len(t, store.articles, 1)
}

func TestRunIsolatesArticleFailures(t *testing.T) {
	store := newMemStore()
	store.createErr = func(a *domain.Article) error {
		if a.ExternalID == "wire-2" {
			return errors.New("disk full")
		}
		return nil
	}
	source := &fakeSource{categories: []string{"world"}}
	for i := 1; i <= 5; i++ {
		source.articles = append(source.articles, rawArticle(i, "world"))
	}

	result, err := newTestPipeline(store, source, nil, nil).Run(context.Background(), domain.Scope{})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Imported)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, result.Details, 5)
	assert.Equal(t, "error: disk full", result.Details[1].Status)
	assert.Equal(t, "Story number 2", result.Details[1].Title)
}

func TestRunConcurrentDuplicateIsSkipped(t *testing.T) {
	store := newMemStore()
	store.createErr = func(*domain.Article) error { return domain.ErrDuplicateArticle }
	source := &fakeSource{articles: []domain.RawArticle{rawArticle(1, "world")}, categories: []string{"world"}}

	result, err := newTestPipeline(store, source, nil, nil).Run(context.Background(), domain.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Errors)
}

func TestRunCategoryScope(t *testing.T) {
	store := newMemStore()
	seedHomepage(store)
	store.addZone(DefaultCategoryZone, "markets", 10)
	store.addZone(DefaultCategoryZone, "business", 10)

	market := rawArticle(1, "markets")
	market.BusinessCategory = "business"
	source := &fakeSource{
		articles:   []domain.RawArticle{market, rawArticle(2, "world")},
		categories: []string{"markets", "world"},
	}

	result, err := newTestPipeline(store, source, nil, nil).Run(context.Background(), domain.Scope{Category: "markets"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	id := result.ImportedIDs[0]
	assert.Equal(t, []string{id}, store.placedIDs("markets/"+DefaultCategoryZone))
	assert.Equal(t, []string{id}, store.placedIDs("business/"+DefaultCategoryZone))
	assert.Empty(t, store.placedIDs("homepage/hero-featured"), "category runs leave the homepage alone")
	assert.Equal(t, 1, store.activeBreakingCount())
}

func TestRunInvalidCategory(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{categories: []string{"markets"}}
	activity := &recordingActivity{}

	_, err := newTestPipeline(store, source, nil, activity).Run(context.Background(), domain.Scope{Category: "sports"})
	require.ErrorIs(t, err, domain.ErrInvalidCategory)
	assert.Empty(t, source.scopes)
	assert.Equal(t, []domain.ActivityKind{domain.ActivityError}, activity.kinds())
}

func TestRunSetupFailures(t *testing.T) {
	t.Run("fetch error", func(t *testing.T) {
		store := newMemStore()
		source := &fakeSource{err: errors.New("upstream 503")}
		_, err := newTestPipeline(store, source, nil, nil).Run(context.Background(), domain.Scope{})
		assert.ErrorContains(t, err, "upstream 503")
	})

	t.Run("no source", func(t *testing.T) {
		p := NewPipeline(PipelineDeps{})
		_, err := p.Run(context.Background(), domain.Scope{})
		assert.ErrorIs(t, err, domain.ErrNoSources)
		assert.Nil(t, p.Categories())
	})
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{articles: []domain.RawArticle{rawArticle(1, "world")}, categories: []string{"world"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(store, source, nil, nil).Run(ctx, domain.Scope{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.articles)
}
