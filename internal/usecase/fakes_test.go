package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// memStore is an in-memory store that enforces the same unique constraints
// as the SQL schema.
type memStore struct {
	mu         sync.Mutex
	articles   []*domain.Article
	categories map[string]domain.Category
	tags       map[string]domain.Tag
	zones      map[string]domain.Zone
	placements map[string][]domain.Placement
	breaking   []domain.BreakingNews

	// createErr, when set, decides the outcome of CreateArticle before the insert.
	createErr func(a *domain.Article) error
	// slugExists overrides the fast-path existence check.
	slugExists func(slug string) (bool, error)
	// replaceErr fails ReplacePlacements for the named zone slug.
	replaceErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[string]domain.Category{},
		tags:       map[string]domain.Tag{},
		zones:      map[string]domain.Zone{},
		placements: map[string][]domain.Placement{},
	}
}

var (
	_ ports.ArticleStore      = (*memStore)(nil)
	_ ports.TaxonomyStore     = (*memStore)(nil)
	_ ports.PlacementStore    = (*memStore)(nil)
	_ ports.BreakingNewsStore = (*memStore)(nil)
)

func (m *memStore) ExistsByExternalID(_ context.Context, externalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	if m.slugExists != nil {
		return m.slugExists(slug)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasSlug(slug), nil
}

func (m *memStore) MaxSlugSuffix(_ context.Context, base string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	highest := 0
	for _, a := range m.articles {
		rest, ok := strings.CutPrefix(a.Slug, base+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (m *memStore) hasSlug(slug string) bool {
	for _, a := range m.articles {
		if a.Slug == slug {
			return true
		}
	}
	return false
}

func (m *memStore) CreateArticle(_ context.Context, article *domain.Article) error {
	if m.createErr != nil {
		if err := m.createErr(article); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ExternalID == article.ExternalID {
			return domain.ErrDuplicateArticle
		}
	}
	if m.hasSlug(article.Slug) {
		return domain.ErrSlugTaken
	}
	cp := *article
	m.articles = append(m.articles, &cp)
	return nil
}

func (m *memStore) RecentArticles(_ context.Context, limit int) ([]domain.ArticleRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]domain.ArticleRef, 0, len(m.articles))
	for _, a := range m.articles {
		refs = append(refs, domain.ArticleRef{ID: a.ID, Slug: a.Slug, Title: a.Title, PublishedAt: a.PublishedAt})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].PublishedAt.After(refs[j].PublishedAt) })
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (m *memStore) GetOrCreateCategory(_ context.Context, category domain.Category) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[category.Slug]; ok {
		return c, nil
	}
	category.ID = "cat-" + category.Slug
	m.categories[category.Slug] = category
	return category, nil
}

func (m *memStore) GetOrCreateTag(_ context.Context, tag domain.Tag) (domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tags[tag.Slug]; ok {
		return t, nil
	}
	tag.ID = "tag-" + tag.Slug
	m.tags[tag.Slug] = tag
	return tag, nil
}

func (m *memStore) addZone(zoneSlug, pageSlug string, capacity int) domain.Zone {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := domain.Zone{ID: pageSlug + "/" + zoneSlug, ZoneSlug: zoneSlug, PageSlug: pageSlug, Capacity: capacity}
	m.zones[z.ID] = z
	return z
}

func (m *memStore) FindZone(_ context.Context, zoneSlug, pageSlug string) (domain.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[pageSlug+"/"+zoneSlug]
	if !ok {
		return domain.Zone{}, domain.ErrZoneNotFound
	}
	return z, nil
}

func (m *memStore) ReplacePlacements(_ context.Context, zone domain.Zone, articleIDs []string) error {
	if err := m.replaceErr[zone.ZoneSlug]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zones[zone.ID]
	z.ActiveGeneration++
	set := make([]domain.Placement, 0, len(articleIDs))
	for i, id := range articleIDs {
		set = append(set, domain.Placement{ID: uuid.NewString(), ZoneID: z.ID, ArticleID: id, Position: i, Generation: z.ActiveGeneration})
	}
	m.zones[z.ID] = z
	m.placements[z.ID] = set
	return nil
}

func (m *memStore) AppendPlacement(_ context.Context, zone domain.Zone, articleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zones[zone.ID]
	set := m.placements[z.ID]
	if len(set) >= z.Capacity {
		return false, nil
	}
	for _, p := range set {
		if p.ArticleID == articleID {
			return false, nil
		}
	}
	m.placements[z.ID] = append(set, domain.Placement{ID: uuid.NewString(), ZoneID: z.ID, ArticleID: articleID, Position: len(set), Generation: z.ActiveGeneration})
	return true, nil
}

func (m *memStore) ActivePlacements(_ context.Context, zoneID string) ([]domain.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Placement(nil), m.placements[zoneID]...), nil
}

func (m *memStore) placedIDs(zoneID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, p := range m.placements[zoneID] {
		ids = append(ids, p.ArticleID)
	}
	return ids
}

func (m *memStore) RotateBreakingNews(_ context.Context, headline, link string) (domain.BreakingNews, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.breaking {
		m.breaking[i].IsActive = false
	}
	news := domain.BreakingNews{ID: uuid.NewString(), Headline: headline, Link: link, IsActive: true}
	m.breaking = append(m.breaking, news)
	return news, nil
}

func (m *memStore) ActiveBreakingNews(_ context.Context) (domain.BreakingNews, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.breaking {
		if b.IsActive {
			return b, nil
		}
	}
	return domain.BreakingNews{}, domain.ErrNotFound
}

func (m *memStore) activeBreakingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.breaking {
		if b.IsActive {
			n++
		}
	}
	return n
}

func (m *memStore) articleByExternalID(externalID string) *domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ExternalID == externalID {
			return a
		}
	}
	return nil
}

type fakeSource struct {
	articles   []domain.RawArticle
	categories []string
	err        error
	scopes     []domain.Scope
}

func (f *fakeSource) Fetch(_ context.Context, scope domain.Scope) ([]domain.RawArticle, error) {
	f.scopes = append(f.scopes, scope)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.RawArticle
	for _, a := range f.articles {
		if scope.Category == "" || a.Category == scope.Category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSource) Categories() []string {
	return f.categories
}

type rewriterFunc func(ctx context.Context, title, body string) (*ports.Rewrite, error)

func (f rewriterFunc) Rewrite(ctx context.Context, title, body string) (*ports.Rewrite, error) {
	return f(ctx, title, body)
}

type pacerFunc func(ctx context.Context) error

func (f pacerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *recordingActivity) Log(_ context.Context, entry domain.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingActivity) kinds() []domain.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.ActivityKind, 0, len(r.entries))
	for _, e := range r.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type notifierFunc func(ctx context.Context, news domain.BreakingNews) error

func (f notifierFunc) PublishBreaking(ctx context.Context, news domain.BreakingNews) error {
	return f(ctx, news)
}

func rawArticle(n int, category string) domain.RawArticle {
	return domain.RawArticle{
		Source:   "wire",
		NativeID: fmt.Sprintf("%d", n),
		Title:    fmt.Sprintf("Story number %d", n),
		Body:     fmt.Sprintf("Paragraph one of %d.\n\nParagraph two of %d.", n, n),
		Category: category,
	}
}
