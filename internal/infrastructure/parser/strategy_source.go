package parser

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
	"NewsDesk/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *zap.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *zap.Logger) *StrategySource {
	if log == nil {
		log = zap.NewNop()
	}
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log.With(zap.String("component", "source")),
	}
}

// Categories lists the distinct category names of all configured sites.
func (s *StrategySource) Categories() []string {
	return config.Config{Sites: s.sites}.CategoryNames()
}

// Fetch runs the scanner of every site that covers the scope. A failing site
// is logged and skipped; the fetch fails only when every matching site fails.
func (s *StrategySource) Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawArticle, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.logger.Debug("fetch", zap.Int("sites", len(s.sites)), zap.String("category", scope.Category), zap.Time("since", scope.Since))

	var (
		aggregated []domain.RawArticle
		failures   []error
		attempted  int
	)
	for _, site := range s.sites {
		categories := selectCategories(site.Categories, scope.Category)
		if len(categories) == 0 {
			continue
		}
		attempted++

		s.logger.Debug("process site", zap.String("site", site.Name), zap.String("scanner", site.Scanner), zap.Int("categories", len(categories)))
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			failures = append(failures, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}

		req := scanner.Request{
			Since:      scope.Since,
			SiteName:   site.Name,
			Options:    site.Options,
			Categories: categories,
			Limit:      scope.Limit,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.logger.Warn("site scan failed", zap.String("site", site.Name), zap.Error(err))
			failures = append(failures, fmt.Errorf("scan site %s: %w", site.Name, err))
			continue
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = site.Name
			}
		}
		s.logger.Debug("site produced articles", zap.String("site", site.Name), zap.Int("count", len(results)))
		aggregated = append(aggregated, results...)
	}

	if attempted == 0 {
		return nil, domain.ErrNoSources
	}
	if len(failures) == attempted {
		return nil, errors.Join(failures...)
	}

	s.logger.Debug("strategy source done", zap.Int("total_articles", len(aggregated)))
	return aggregated, nil
}

func selectCategories(cfg []config.CategoryConfig, only string) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		if only != "" && cat.Name != only {
			continue
		}
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}
