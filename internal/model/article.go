package model

import "time"

type Article struct {
	ID            int64     `db:"id" json:"id"`
	Site          Site      `db:"site" json:"site"`
	WPID          *int64    `db:"wp_id" json:"wpId,omitempty"`
	URL           string    `db:"url" json:"url"`
	Title         string    `db:"title" json:"title"`
	PublishedDate time.Time `db:"published_date" json:"publishedDate"`
	Category      *string   `db:"category" json:"category,omitempty"`
	Author        *string   `db:"author" json:"author,omitempty"`
	OGImage       *string   `db:"og_image" json:"ogImage,omitempty"`
	Excerpt       *string   `db:"excerpt" json:"excerpt,omitempty"`
}

// UpsertArticleParams carries one scraped article into storage. The
// (site, url) pair is the natural key.
type UpsertArticleParams struct {
	Site          Site
	WPID          *int64
	URL           string
	Title         string
	PublishedDate time.Time
	Category      *string
	Author        *string
	OGImage       *string
	Excerpt       *string
}

// ArticleFilter narrows a listing query. Author is only effective for
// the salon site.
type ArticleFilter struct {
	Site     Site
	Category string
	Author   string
	Month    string // YYYY-MM
	Limit    int
	Offset   int
}

// ArticleFacets are the distinct filter values available for a site.
type ArticleFacets struct {
	Categories []string `json:"categories"`
	Authors    []string `json:"authors"`
	Months     []string `json:"months"`
}

// SyncStatus is the per-site sync bookkeeping row.
type SyncStatus struct {
	Site       Site       `db:"site" json:"site"`
	LastSyncAt *time.Time `db:"last_sync_at" json:"lastSyncAt"`
	TotalCount int        `db:"total_count" json:"totalCount"`
}
