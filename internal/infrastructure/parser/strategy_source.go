package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// Sites names the enabled sites in configuration order.
func (s *StrategySource) Sites() []string {
	names := make([]string, 0, len(s.sites))
	for _, site := range s.sites {
		if !site.Disabled {
			names = append(names, site.Name)
		}
	}
	return names
}

// FetchDaily runs every enabled site. A failing site does not stop the others: its error is
// joined into the returned error next to the records the remaining sites produced.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) ([]domain.CandidateRecord, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch daily", "sites", len(s.sites), "day", day.Format(time.DateOnly))

	var (
		aggregated []domain.CandidateRecord
		siteErrs   []error
	)
	for _, site := range s.sites {
		if site.Disabled {
			s.debug("skip disabled site", "site", site.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return aggregated, err
		}

		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			siteErrs = append(siteErrs, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}

		req := scanner.Request{
			Day:        day,
			SiteName:   site.Name,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("site scan failed", "site", site.Name, "partial", len(results), "error", err)
			siteErrs = append(siteErrs, fmt.Errorf("scan site %s: %w", site.Name, err))
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = site.Name
			}
		}
		s.debug("site produced records", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_records", len(aggregated), "failed_sites", len(siteErrs))
	return aggregated, errors.Join(siteErrs...)
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
