package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/config"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/redis"
	"github.com/creators-jp/portal-server/internal/report"
)

// GAReportFetcher fetches one month of analytics data for a property.
type GAReportFetcher interface {
	FetchReport(ctx context.Context, propertyID string, dr report.DateRange) (*report.GAReport, error)
}

// GSCReportFetcher fetches one month of search performance for a site.
type GSCReportFetcher interface {
	FetchReport(ctx context.Context, siteURL string, dr report.DateRange) (*report.GSCReport, error)
}

type ReportService struct {
	cfg   *config.Config
	cache ResponseCache
	ga    GAReportFetcher
	gsc   GSCReportFetcher
}

func NewReportService(cfg *config.Config, c ResponseCache, ga GAReportFetcher, gsc GSCReportFetcher) *ReportService {
	return &ReportService{cfg: cfg, cache: c, ga: ga, gsc: gsc}
}

// GA returns the analytics report for a site and period, serving from
// cache when a fresh entry exists.
func (s *ReportService) GA(ctx context.Context, site model.Site, period string) (any, bool, *time.Time, error) {
	dr, err := report.CalculateDateRange(period, time.Now())
	if err != nil {
		return nil, false, nil, apperrors.InvalidPeriod(period)
	}

	key := redis.GAKey(site, dr.Period)
	if data, cachedAt := s.fromCache(ctx, key); data != nil {
		return data, true, cachedAt, nil
	}

	propertyID := s.cfg.Site(site).GA4PropertyID
	if s.ga == nil || propertyID == "" {
		return nil, false, nil, apperrors.ConfigError("GA4 reporting is not configured for this site")
	}

	reportData, err := s.ga.FetchReport(ctx, propertyID, dr)
	if err != nil {
		return nil, false, nil, apperrors.Wrap(apperrors.ErrCodeGA4, "Failed to fetch GA4 report", err)
	}

	s.store(ctx, key, reportData, config.CacheTTLGAReport)
	return reportData, false, nil, nil
}

// GSC returns the search performance report for a site and period,
// serving from cache when a fresh entry exists.
func (s *ReportService) GSC(ctx context.Context, site model.Site, period string) (any, bool, *time.Time, error) {
	dr, err := report.CalculateDateRange(period, time.Now())
	if err != nil {
		return nil, false, nil, apperrors.InvalidPeriod(period)
	}

	key := redis.GSCKey(site, dr.Period)
	if data, cachedAt := s.fromCache(ctx, key); data != nil {
		return data, true, cachedAt, nil
	}

	if s.gsc == nil {
		return nil, false, nil, apperrors.ConfigError("Search Console reporting is not configured")
	}

	reportData, err := s.gsc.FetchReport(ctx, s.cfg.Site(site).URL, dr)
	if err != nil {
		return nil, false, nil, apperrors.Wrap(apperrors.ErrCodeGSC, "Failed to fetch Search Console report", err)
	}

	s.store(ctx, key, reportData, config.CacheTTLGSC)
	return reportData, false, nil, nil
}

func (s *ReportService) fromCache(ctx context.Context, key string) (json.RawMessage, *time.Time) {
	entry, err := s.cache.Get(ctx, key)
	if err != nil || entry == nil {
		return nil, nil
	}
	return entry.Data, &entry.CachedAt
}

func (s *ReportService) store(ctx context.Context, key string, data any, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache report")
	}
}
