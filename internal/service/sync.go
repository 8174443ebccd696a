package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/config"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/redis"
	"github.com/creators-jp/portal-server/internal/repository"
	"github.com/creators-jp/portal-server/internal/scraper"
)

// SiteScraper fetches the current article set of a WordPress site.
type SiteScraper interface {
	Scrape(ctx context.Context, siteURL string) (*scraper.Result, error)
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Inserted       int       `json:"inserted"`
	Updated        int       `json:"updated"`
	Total          int       `json:"total"`
	WPArticleCount int       `json:"wpArticleCount"`
	ForceSync      bool      `json:"forceSync"`
	SyncedAt       time.Time `json:"syncedAt"`
	Fingerprint    string    `json:"fingerprint"`
}

type SyncService struct {
	cfg         *config.Config
	articleRepo repository.ArticleRepository
	scraper     SiteScraper
	cache       ResponseCache
}

func NewSyncService(cfg *config.Config, articleRepo repository.ArticleRepository, siteScraper SiteScraper, c ResponseCache) *SyncService {
	return &SyncService{cfg: cfg, articleRepo: articleRepo, scraper: siteScraper, cache: c}
}

// Sync refreshes the stored article set for a site. A forced sync
// discards the stored set and reinserts everything the scrape
// returned; an incremental sync only writes articles published
// strictly after the newest stored publish date. A failed scrape
// leaves the stored set and the sync status untouched.
func (s *SyncService) Sync(ctx context.Context, site model.Site, force bool) (*SyncResult, error) {
	siteURL := s.cfg.Site(site).URL

	result, err := s.scraper.Scrape(ctx, siteURL)
	if err != nil {
		return nil, apperrors.SyncFailed(err)
	}

	syncResult := &SyncResult{
		WPArticleCount: len(result.Articles),
		ForceSync:      force,
		SyncedAt:       result.ScrapedAt,
		Fingerprint:    result.Fingerprint,
	}

	if force {
		if err := s.articleRepo.DeleteBySite(ctx, site); err != nil {
			return nil, apperrors.Database(err)
		}
		for _, a := range result.Articles {
			if err := s.articleRepo.Upsert(ctx, upsertParams(site, a)); err != nil {
				return nil, apperrors.Database(err)
			}
			syncResult.Inserted++
		}
	} else {
		watermark, hasWatermark, err := s.articleRepo.MaxPublishedDate(ctx, site)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		for _, a := range result.Articles {
			if hasWatermark && !a.PublishedDate.After(watermark) {
				continue
			}
			if err := s.articleRepo.Upsert(ctx, upsertParams(site, a)); err != nil {
				return nil, apperrors.Database(err)
			}
			syncResult.Inserted++
		}
	}

	total, err := s.articleRepo.CountBySite(ctx, site)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	syncResult.Total = total

	if err := s.articleRepo.UpsertSyncStatus(ctx, site, total); err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.cache.Delete(ctx, redis.ArticlesKey(site)); err != nil {
		log.Warn().Err(err).Str("site", string(site)).Msg("failed to invalidate article cache after sync")
	}

	log.Info().
		Str("site", string(site)).
		Bool("force", force).
		Int("inserted", syncResult.Inserted).
		Int("wp_article_count", syncResult.WPArticleCount).
		Int("total", total).
		Msg("article sync completed")

	return syncResult, nil
}

// Status returns the last recorded sync run for a site, or nil when
// the site has never been synced.
func (s *SyncService) Status(ctx context.Context, site model.Site) (*model.SyncStatus, error) {
	status, err := s.articleRepo.FindSyncStatus(ctx, site)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return status, nil
}

func upsertParams(site model.Site, a scraper.Article) model.UpsertArticleParams {
	return model.UpsertArticleParams{
		Site:          site,
		WPID:          a.WPID,
		URL:           a.URL,
		Title:         a.Title,
		PublishedDate: a.PublishedDate,
		Category:      a.Category,
		Author:        a.Author,
		OGImage:       a.OGImage,
		Excerpt:       a.Excerpt,
	}
}
