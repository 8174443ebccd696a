package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/creators-jp/portal-server/internal/database"
	"github.com/creators-jp/portal-server/internal/model"
)

type SummaryRepository interface {
	ListBySite(ctx context.Context, site model.Site, limit int) ([]model.MonthlySummary, error)
	Upsert(ctx context.Context, params model.UpsertSummaryParams) error
	MarkNotified(ctx context.Context, site model.Site, yearMonth string) error
}

type summaryRepo struct {
	db database.DBTX
}

func NewSummaryRepository(db *sqlx.DB) SummaryRepository {
	return &summaryRepo{db: db}
}

func (r *summaryRepo) ListBySite(ctx context.Context, site model.Site, limit int) ([]model.MonthlySummary, error) {
	summaries := []model.MonthlySummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT * FROM monthly_summaries
		WHERE site = $1
		ORDER BY year_month DESC
		LIMIT $2
	`, site, limit)
	return summaries, err
}

func (r *summaryRepo) Upsert(ctx context.Context, params model.UpsertSummaryParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_summaries (site, year_month, ga_summary, gsc_summary, article_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (site, year_month) DO UPDATE SET
			ga_summary = EXCLUDED.ga_summary,
			gsc_summary = EXCLUDED.gsc_summary,
			article_count = EXCLUDED.article_count
	`, params.Site, params.YearMonth, params.GASummary, params.GSCSummary, params.ArticleCount)
	return err
}

func (r *summaryRepo) MarkNotified(ctx context.Context, site model.Site, yearMonth string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE monthly_summaries SET discord_notified_at = NOW()
		WHERE site = $1 AND year_month = $2
	`, site, yearMonth)
	return err
}
