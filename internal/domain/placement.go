package domain

// HomepageSlug is the page that owns the managed homepage zones.
const HomepageSlug = "homepage"

// Zone is a capacity-bounded, ordered content slot on a page.
type Zone struct {
	ID               string
	ZoneSlug         string
	PageSlug         string
	Capacity         int
	ActiveGeneration int64
}

// ZoneSpec declares a managed zone and its capacity.
type ZoneSpec struct {
	Slug     string `yaml:"slug" validate:"required"`
	Capacity int    `yaml:"capacity" validate:"min=1"`
}

// DefaultHomepageZones lists the managed homepage zones in fill order.
func DefaultHomepageZones() []ZoneSpec {
	return []ZoneSpec{
		{Slug: "hero-featured", Capacity: 4},
		{Slug: "article-grid", Capacity: 6},
		{Slug: "trending-sidebar", Capacity: 8},
	}
}

// TotalCapacity sums the capacities of the given zones.
func TotalCapacity(zones []ZoneSpec) int {
	total := 0
	for _, z := range zones {
		total += z.Capacity
	}
	return total
}

// Placement links a zone to an article at an ordered position.
type Placement struct {
	ID         string
	ZoneID     string
	ArticleID  string
	Position   int
	IsPinned   bool
	Generation int64
}

// BreakingNews is one row of the breaking-news set; at most one is active.
type BreakingNews struct {
	ID       string
	Headline string
	Link     string
	IsActive bool
}
