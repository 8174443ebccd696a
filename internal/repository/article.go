package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/creators-jp/portal-server/internal/database"
	"github.com/creators-jp/portal-server/internal/model"
)

type ArticleRepository interface {
	FindFiltered(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error)
	CountFiltered(ctx context.Context, filter model.ArticleFilter) (int, error)
	Facets(ctx context.Context, site model.Site) (*model.ArticleFacets, error)

	// MaxPublishedDate is the incremental-sync watermark; ok is false
	// when the site has no rows.
	MaxPublishedDate(ctx context.Context, site model.Site) (time.Time, bool, error)
	Upsert(ctx context.Context, params model.UpsertArticleParams) error
	DeleteBySite(ctx context.Context, site model.Site) error
	CountBySite(ctx context.Context, site model.Site) (int, error)

	FindSyncStatus(ctx context.Context, site model.Site) (*model.SyncStatus, error)
	UpsertSyncStatus(ctx context.Context, site model.Site, totalCount int) error
}

type articleRepo struct {
	db database.DBTX
}

func NewArticleRepository(db *sqlx.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// buildFilter translates an ArticleFilter into a WHERE clause with
// positional args. The author filter only applies to the salon site.
func buildFilter(filter model.ArticleFilter) (string, []any) {
	where := `site = $1`
	args := []any{filter.Site}

	next := func() int { return len(args) + 1 }

	if filter.Category != "" {
		where += ` AND category = $` + itoa(next())
		args = append(args, filter.Category)
	}
	if filter.Author != "" && filter.Site == model.SiteSalon {
		where += ` AND author = $` + itoa(next())
		args = append(args, filter.Author)
	}
	if filter.Month != "" {
		where += ` AND to_char(published_date, 'YYYY-MM') = $` + itoa(next())
		args = append(args, filter.Month)
	}

	return where, args
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func (r *articleRepo) FindFiltered(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	where, args := buildFilter(filter)

	query := `
		SELECT * FROM articles
		WHERE ` + where + `
		ORDER BY published_date DESC, id DESC
		LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	articles := []model.Article{}
	err := r.db.SelectContext(ctx, &articles, query, args...)
	return articles, err
}

func (r *articleRepo) CountFiltered(ctx context.Context, filter model.ArticleFilter) (int, error) {
	where, args := buildFilter(filter)

	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles WHERE `+where, args...)
	return count, err
}

func (r *articleRepo) Facets(ctx context.Context, site model.Site) (*model.ArticleFacets, error) {
	facets := &model.ArticleFacets{
		Categories: []string{},
		Authors:    []string{},
		Months:     []string{},
	}

	if err := r.db.SelectContext(ctx, &facets.Categories, `
		SELECT DISTINCT category FROM articles
		WHERE site = $1 AND category IS NOT NULL
		ORDER BY category
	`, site); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &facets.Months, `
		SELECT DISTINCT to_char(published_date, 'YYYY-MM') AS month
		FROM articles WHERE site = $1
		ORDER BY month DESC
	`, site); err != nil {
		return nil, err
	}

	// Author facet is only surfaced for the salon site.
	if site == model.SiteSalon {
		if err := r.db.SelectContext(ctx, &facets.Authors, `
			SELECT DISTINCT author FROM articles
			WHERE site = $1 AND author IS NOT NULL
			ORDER BY author
		`, site); err != nil {
			return nil, err
		}
	}

	return facets, nil
}

func (r *articleRepo) MaxPublishedDate(ctx context.Context, site model.Site) (time.Time, bool, error) {
	var latest *time.Time
	err := r.db.GetContext(ctx, &latest, `
		SELECT MAX(published_date) FROM articles WHERE site = $1
	`, site)
	if err != nil {
		return time.Time{}, false, err
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

func (r *articleRepo) Upsert(ctx context.Context, params model.UpsertArticleParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (site, wp_id, url, title, published_date, category, author, og_image, excerpt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (site, url) DO UPDATE SET
			wp_id = EXCLUDED.wp_id,
			title = EXCLUDED.title,
			published_date = EXCLUDED.published_date,
			category = EXCLUDED.category,
			author = EXCLUDED.author,
			og_image = EXCLUDED.og_image,
			excerpt = EXCLUDED.excerpt
	`, params.Site, params.WPID, params.URL, params.Title, params.PublishedDate,
		params.Category, params.Author, params.OGImage, params.Excerpt)
	return err
}

func (r *articleRepo) DeleteBySite(ctx context.Context, site model.Site) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE site = $1`, site)
	return err
}

func (r *articleRepo) CountBySite(ctx context.Context, site model.Site) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM articles WHERE site = $1
	`, site)
	return count, err
}

func (r *articleRepo) FindSyncStatus(ctx context.Context, site model.Site) (*model.SyncStatus, error) {
	var status model.SyncStatus
	err := r.db.GetContext(ctx, &status, `
		SELECT * FROM article_sync WHERE site = $1
	`, site)
	return HandleNotFound(&status, err)
}

func (r *articleRepo) UpsertSyncStatus(ctx context.Context, site model.Site, totalCount int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO article_sync (site, last_sync_at, total_count)
		VALUES ($1, NOW(), $2)
		ON CONFLICT (site) DO UPDATE SET
			last_sync_at = NOW(),
			total_count = EXCLUDED.total_count
	`, site, totalCount)
	return err
}
