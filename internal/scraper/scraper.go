// Package scraper fetches a WordPress site's article listing. It tries
// the structured REST API first and falls back to parsing the listing
// page HTML when the API is unusable. The two sources are never mixed
// within one run.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/config"
)

const userAgent = "Mozilla/5.0 (compatible; CreatorsJapanPortal/1.0)"

// Article is the normalized record both sources converge to.
type Article struct {
	WPID          *int64
	URL           string
	Title         string
	PublishedDate time.Time
	Category      *string
	Author        *string
	OGImage       *string
	Excerpt       *string
}

// Result is one completed scrape run. Fingerprint is a stable hash over
// the article set, kept for external change detection; the sync diff
// itself compares publish dates.
type Result struct {
	Articles    []Article
	Fingerprint string
	ScrapedAt   time.Time
}

type Scraper struct {
	client *http.Client
}

func New() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: config.UpstreamTimeout},
	}
}

// NewWithClient is used by tests to point the scraper at a test server.
func NewWithClient(client *http.Client) *Scraper {
	return &Scraper{client: client}
}

// Scrape runs the two-stage fetch for one site. Stage one pages the
// REST API; on any "source unusable" signal (404/403, transport error,
// malformed payload) the run switches entirely to the HTML fallback.
// Failure of both stages is the run's failure.
func (s *Scraper) Scrape(ctx context.Context, siteURL string) (*Result, error) {
	articles, err := s.fetchFromAPI(ctx, siteURL)
	if err != nil {
		log.Warn().Err(err).Str("site_url", siteURL).Msg("wordpress api unusable, falling back to html scraping")

		articles, err = s.fetchFromHTML(ctx, siteURL)
		if err != nil {
			return nil, fmt.Errorf("scrape %s: %w", siteURL, err)
		}
	}

	return &Result{
		Articles:    articles,
		Fingerprint: Fingerprint(articles),
		ScrapedAt:   time.Now(),
	}, nil
}

func (s *Scraper) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	return s.client.Do(req)
}
