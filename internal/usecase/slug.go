package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"NewsDesk/internal/ports"
)

const (
	maxBaseSlugLength = 80
	emptySlugFallback = "article"
)

// SlugAllocator finds a free article slug for a title. The existence check
// is a fast path only; the unique index on articles.slug is authoritative.
type SlugAllocator struct {
	store ports.ArticleStore
}

// NewSlugAllocator wires the allocator to the article store.
func NewSlugAllocator(store ports.ArticleStore) *SlugAllocator {
	return &SlugAllocator{store: store}
}

// Allocate returns base when free, otherwise base-n with n one above the
// highest suffix already in use.
func (a *SlugAllocator) Allocate(ctx context.Context, title string) (string, error) {
	base := BaseSlug(title)
	taken, err := a.store.SlugExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check slug %s: %w", base, err)
	}
	if !taken {
		return base, nil
	}

	highest, err := a.store.MaxSlugSuffix(ctx, base)
	if err != nil {
		return "", fmt.Errorf("max slug suffix %s: %w", base, err)
	}
	for n := highest + 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := SlugCandidate(base, n)
		taken, err := a.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// BaseSlug slugifies a title and bounds its length.
func BaseSlug(title string) string {
	s := slug.Make(title)
	if len(s) > maxBaseSlugLength {
		s = s[:maxBaseSlugLength]
		if i := strings.LastIndex(s, "-"); i > maxBaseSlugLength/2 {
			s = s[:i]
		}
		s = strings.Trim(s, "-")
	}
	if s == "" {
		return emptySlugFallback
	}
	return s
}

// SlugCandidate appends the -n suffix for n > 0.
func SlugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
