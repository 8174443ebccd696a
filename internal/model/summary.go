package model

import (
	"encoding/json"
	"time"
)

// MonthlySummary holds pre-aggregated GA/GSC blobs per site and month.
type MonthlySummary struct {
	ID                int64            `db:"id" json:"id"`
	Site              Site             `db:"site" json:"site"`
	YearMonth         string           `db:"year_month" json:"yearMonth"`
	GASummary         *json.RawMessage `db:"ga_summary" json:"gaSummary"`
	GSCSummary        *json.RawMessage `db:"gsc_summary" json:"gscSummary"`
	ArticleCount      int              `db:"article_count" json:"articleCount"`
	DiscordNotifiedAt *time.Time       `db:"discord_notified_at" json:"discordNotifiedAt"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
}

type UpsertSummaryParams struct {
	Site         Site
	YearMonth    string
	GASummary    *json.RawMessage
	GSCSummary   *json.RawMessage
	ArticleCount int
}
