package report

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/creators-jp/portal-server/internal/config"
)

const gscBaseURL = "https://www.googleapis.com/webmasters/v3"

type GSCSummary struct {
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

type GSCQuery struct {
	Query       string  `json:"query"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

type GSCPage struct {
	Page        string  `json:"page"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

type GSCReport struct {
	Period     string     `json:"period"`
	Summary    GSCSummary `json:"summary"`
	TopQueries []GSCQuery `json:"topQueries"`
	TopPages   []GSCPage  `json:"topPages"`
}

type searchAnalyticsResponse struct {
	Rows []searchAnalyticsRow `json:"rows"`
}

type searchAnalyticsRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

type GSCClient struct {
	tokens  *TokenSource
	client  *http.Client
	baseURL string
}

func NewGSCClient(tokens *TokenSource) *GSCClient {
	return &GSCClient{
		tokens:  tokens,
		client:  &http.Client{Timeout: config.UpstreamTimeout},
		baseURL: gscBaseURL,
	}
}

// FetchReport queries search performance for one verified site over
// the given month: an overall summary plus the top queries and pages.
func (c *GSCClient) FetchReport(ctx context.Context, siteURL string, dr DateRange) (*GSCReport, error) {
	token, err := c.tokens.Token(ctx, ScopeWebmasters)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sites/%s/searchAnalytics/query", c.baseURL, url.QueryEscape(siteURL))

	var summaryResp searchAnalyticsResponse
	err = postJSON(ctx, c.client, token, apiURL, map[string]any{
		"startDate": dr.StartDate,
		"endDate":   dr.EndDate,
	}, &summaryResp)
	if err != nil {
		return nil, fmt.Errorf("gsc summary query: %w", err)
	}

	var queriesResp searchAnalyticsResponse
	err = postJSON(ctx, c.client, token, apiURL, map[string]any{
		"startDate":  dr.StartDate,
		"endDate":    dr.EndDate,
		"dimensions": []string{"query"},
		"rowLimit":   50,
	}, &queriesResp)
	if err != nil {
		return nil, fmt.Errorf("gsc queries query: %w", err)
	}

	var pagesResp searchAnalyticsResponse
	err = postJSON(ctx, c.client, token, apiURL, map[string]any{
		"startDate":  dr.StartDate,
		"endDate":    dr.EndDate,
		"dimensions": []string{"page"},
		"rowLimit":   50,
	}, &pagesResp)
	if err != nil {
		return nil, fmt.Errorf("gsc pages query: %w", err)
	}

	return buildGSCReport(dr.Period, summaryResp, queriesResp, pagesResp), nil
}

func buildGSCReport(period string, summaryResp, queriesResp, pagesResp searchAnalyticsResponse) *GSCReport {
	report := &GSCReport{
		Period:     period,
		TopQueries: []GSCQuery{},
		TopPages:   []GSCPage{},
	}

	if len(summaryResp.Rows) > 0 {
		var clicks, impressions, position float64
		for _, row := range summaryResp.Rows {
			clicks += row.Clicks
			impressions += row.Impressions
			position += row.Position
		}
		ctr := 0.0
		if impressions > 0 {
			ctr = clicks / impressions
		}
		report.Summary = GSCSummary{
			Clicks:      int(clicks),
			Impressions: int(impressions),
			CTR:         roundPercent(ctr),
			Position:    roundTenth(position / float64(len(summaryResp.Rows))),
		}
	}

	for _, row := range queriesResp.Rows {
		if len(row.Keys) < 1 {
			continue
		}
		report.TopQueries = append(report.TopQueries, GSCQuery{
			Query:       row.Keys[0],
			Clicks:      int(row.Clicks),
			Impressions: int(row.Impressions),
			CTR:         roundPercent(row.CTR),
			Position:    roundTenth(row.Position),
		})
	}

	for _, row := range pagesResp.Rows {
		if len(row.Keys) < 1 {
			continue
		}
		report.TopPages = append(report.TopPages, GSCPage{
			Page:        row.Keys[0],
			Clicks:      int(row.Clicks),
			Impressions: int(row.Impressions),
			CTR:         roundPercent(row.CTR),
			Position:    roundTenth(row.Position),
		})
	}

	return report
}

// roundPercent converts a 0..1 ratio to a percentage rounded to two
// decimal places.
func roundPercent(ratio float64) float64 {
	return math.Round(ratio*10000) / 100
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
