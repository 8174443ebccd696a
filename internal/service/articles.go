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
	"github.com/creators-jp/portal-server/internal/repository"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ArticleList is the articles listing payload.
type ArticleList struct {
	Articles   []model.Article      `json:"articles"`
	Pagination Pagination           `json:"pagination"`
	Facets     *model.ArticleFacets `json:"facets"`
	LastSyncAt *time.Time           `json:"lastSyncAt"`
}

type ArticleService struct {
	articleRepo repository.ArticleRepository
	cache       ResponseCache
}

func NewArticleService(articleRepo repository.ArticleRepository, c ResponseCache) *ArticleService {
	return &ArticleService{articleRepo: articleRepo, cache: c}
}

// List returns one page of articles with facets and sync metadata.
// The unfiltered first page at the default limit is served from cache
// when available; fromCache reports whether it was. Authors are only
// surfaced for the salon site.
func (s *ArticleService) List(ctx context.Context, filter model.ArticleFilter, page int) (*ArticleList, bool, *time.Time, error) {
	cacheable := filter.Category == "" && filter.Author == "" && filter.Month == "" &&
		page == 1 && filter.Limit == config.DefaultPageLimit

	if cacheable {
		entry, err := s.cache.Get(ctx, redis.ArticlesKey(filter.Site))
		if err == nil && entry != nil {
			var list ArticleList
			if err := json.Unmarshal(entry.Data, &list); err == nil {
				return &list, true, &entry.CachedAt, nil
			}
			log.Warn().Str("site", string(filter.Site)).Msg("discarding malformed article cache entry")
		}
	}

	filter.Offset = (page - 1) * filter.Limit

	articles, err := s.articleRepo.FindFiltered(ctx, filter)
	if err != nil {
		return nil, false, nil, apperrors.Database(err)
	}

	if filter.Site != model.SiteSalon {
		for i := range articles {
			articles[i].Author = nil
		}
	}

	total, err := s.articleRepo.CountFiltered(ctx, filter)
	if err != nil {
		return nil, false, nil, apperrors.Database(err)
	}

	facets, err := s.articleRepo.Facets(ctx, filter.Site)
	if err != nil {
		return nil, false, nil, apperrors.Database(err)
	}

	list := &ArticleList{
		Articles: articles,
		Pagination: Pagination{
			Page:       page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: (total + filter.Limit - 1) / filter.Limit,
		},
		Facets: facets,
	}

	status, err := s.articleRepo.FindSyncStatus(ctx, filter.Site)
	if err != nil {
		return nil, false, nil, apperrors.Database(err)
	}
	if status != nil {
		list.LastSyncAt = status.LastSyncAt
	}

	if cacheable {
		if err := s.cache.Set(ctx, redis.ArticlesKey(filter.Site), list, config.CacheTTLArticles); err != nil {
			log.Warn().Err(err).Str("site", string(filter.Site)).Msg("failed to cache article listing")
		}
	}

	return list, false, nil, nil
}
