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
	"github.com/creators-jp/portal-server/internal/repository"
)

const summaryHistoryMonths = 12

// SaveSummaryInput is one monthly summary upsert.
type SaveSummaryInput struct {
	Site         model.Site       `json:"site"`
	YearMonth    string           `json:"yearMonth"`
	GASummary    *json.RawMessage `json:"gaSummary"`
	GSCSummary   *json.RawMessage `json:"gscSummary"`
	ArticleCount int              `json:"articleCount"`
}

type SummaryService struct {
	summaryRepo repository.SummaryRepository
	cache       ResponseCache
}

func NewSummaryService(summaryRepo repository.SummaryRepository, c ResponseCache) *SummaryService {
	return &SummaryService{summaryRepo: summaryRepo, cache: c}
}

// summaryListKey is the cache slot for a site's summary history. Keying
// by the current month rolls the entry over at month boundaries.
func summaryListKey(site model.Site, now time.Time) string {
	return redis.SummaryKey(site, now.Format("2006-01"))
}

// List returns the newest stored summaries for a site, capped at one
// year of history and served from cache when a fresh entry exists.
func (s *SummaryService) List(ctx context.Context, site model.Site) ([]model.MonthlySummary, bool, *time.Time, error) {
	key := summaryListKey(site, time.Now())

	entry, err := s.cache.Get(ctx, key)
	if err == nil && entry != nil {
		var summaries []model.MonthlySummary
		if err := json.Unmarshal(entry.Data, &summaries); err == nil {
			return summaries, true, &entry.CachedAt, nil
		}
		log.Warn().Str("site", string(site)).Msg("discarding malformed summary cache entry")
	}

	summaries, err := s.summaryRepo.ListBySite(ctx, site, summaryHistoryMonths)
	if err != nil {
		return nil, false, nil, apperrors.Database(err)
	}

	if err := s.cache.Set(ctx, key, summaries, config.CacheTTLSummary); err != nil {
		log.Warn().Err(err).Str("site", string(site)).Msg("failed to cache summary history")
	}

	return summaries, false, nil, nil
}

// Save upserts one summary keyed by site and month, then invalidates
// the cached history so the next read reflects it.
func (s *SummaryService) Save(ctx context.Context, input SaveSummaryInput) error {
	if _, err := report.CalculateDateRange(input.YearMonth, time.Now()); err != nil || input.YearMonth == "" {
		return apperrors.InvalidPeriod(input.YearMonth)
	}

	err := s.summaryRepo.Upsert(ctx, model.UpsertSummaryParams{
		Site:         input.Site,
		YearMonth:    input.YearMonth,
		GASummary:    input.GASummary,
		GSCSummary:   input.GSCSummary,
		ArticleCount: input.ArticleCount,
	})
	if err != nil {
		return apperrors.Database(err)
	}

	if err := s.cache.Delete(ctx, summaryListKey(input.Site, time.Now())); err != nil {
		log.Warn().Err(err).Str("site", string(input.Site)).Msg("failed to invalidate summary cache")
	}

	return nil
}
