package report

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/creators-jp/portal-server/internal/config"
)

const gaBaseURL = "https://analyticsdata.googleapis.com/v1beta"

type GASummary struct {
	PageViews          int     `json:"pageViews"`
	Users              int     `json:"users"`
	NewUsers           int     `json:"newUsers"`
	Sessions           int     `json:"sessions"`
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	BounceRate         float64 `json:"bounceRate"`
}

type GADailyData struct {
	Date      string `json:"date"`
	PageViews int    `json:"pageViews"`
	Users     int    `json:"users"`
}

type GATopPage struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Views int    `json:"views"`
}

type GAReport struct {
	Period    string        `json:"period"`
	Summary   GASummary     `json:"summary"`
	DailyData []GADailyData `json:"dailyData"`
	TopPages  []GATopPage   `json:"topPages"`
}

// runReportResponse is the subset of the Analytics Data API response
// shape the report needs.
type runReportResponse struct {
	Rows []runReportRow `json:"rows"`
}

type runReportRow struct {
	DimensionValues []reportValue `json:"dimensionValues"`
	MetricValues    []reportValue `json:"metricValues"`
}

type reportValue struct {
	Value string `json:"value"`
}

type GAClient struct {
	tokens  *TokenSource
	client  *http.Client
	baseURL string
}

func NewGAClient(tokens *TokenSource) *GAClient {
	return &GAClient{
		tokens:  tokens,
		client:  &http.Client{Timeout: config.UpstreamTimeout},
		baseURL: gaBaseURL,
	}
}

// FetchReport runs the summary, daily and top-page reports for one
// property over the given month.
func (c *GAClient) FetchReport(ctx context.Context, propertyID string, dr DateRange) (*GAReport, error) {
	token, err := c.tokens.Token(ctx, ScopeAnalytics)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, propertyID)
	dateRanges := []map[string]string{{"startDate": dr.StartDate, "endDate": dr.EndDate}}

	var summaryResp runReportResponse
	err = postJSON(ctx, c.client, token, apiURL, map[string]any{
		"dateRanges": dateRanges,
		"metrics": []map[string]string{
			{"name": "screenPageViews"},
			{"name": "activeUsers"},
			{"name": "newUsers"},
			{"name": "sessions"},
			{"name": "averageSessionDuration"},
			{"name": "bounceRate"},
		},
	}, &summaryResp)
	if err != nil {
		return nil, fmt.Errorf("ga summary report: %w", err)
	}

	var dailyResp runReportResponse
	err = postJSON(ctx, c.client, token, apiURL, map[string]any{
		"dateRanges": dateRanges,
		"dimensions": []map[string]string{{"name": "date"}},
		"metrics": []map[string]string{
			{"name": "screenPageViews"},
			{"name": "activeUsers"},
		},
		"orderBys": []map[string]any{
			{"dimension": map[string]string{"dimensionName": "date"}},
		},
	}, &dailyResp)
	if err != nil {
		return nil, fmt.Errorf("ga daily report: %w", err)
	}

	var topPagesResp runReportResponse
	err = postJSON(ctx, c.client, token, apiURL, map[string]any{
		"dateRanges": dateRanges,
		"dimensions": []map[string]string{
			{"name": "pagePath"},
			{"name": "pageTitle"},
		},
		"metrics": []map[string]string{{"name": "screenPageViews"}},
		"orderBys": []map[string]any{
			{"metric": map[string]string{"metricName": "screenPageViews"}, "desc": true},
		},
		"limit": 10,
	}, &topPagesResp)
	if err != nil {
		return nil, fmt.Errorf("ga top pages report: %w", err)
	}

	return buildGAReport(dr.Period, summaryResp, dailyResp, topPagesResp), nil
}

func buildGAReport(period string, summaryResp, dailyResp, topPagesResp runReportResponse) *GAReport {
	report := &GAReport{
		Period:    period,
		DailyData: []GADailyData{},
		TopPages:  []GATopPage{},
	}

	if len(summaryResp.Rows) > 0 {
		m := summaryResp.Rows[0].MetricValues
		report.Summary = GASummary{
			PageViews:          metricInt(m, 0),
			Users:              metricInt(m, 1),
			NewUsers:           metricInt(m, 2),
			Sessions:           metricInt(m, 3),
			AvgSessionDuration: metricFloat(m, 4),
			BounceRate:         metricFloat(m, 5),
		}
	}

	for _, row := range dailyResp.Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 2 {
			continue
		}
		report.DailyData = append(report.DailyData, GADailyData{
			Date:      row.DimensionValues[0].Value,
			PageViews: metricInt(row.MetricValues, 0),
			Users:     metricInt(row.MetricValues, 1),
		})
	}

	for _, row := range topPagesResp.Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		report.TopPages = append(report.TopPages, GATopPage{
			Path:  row.DimensionValues[0].Value,
			Title: row.DimensionValues[1].Value,
			Views: metricInt(row.MetricValues, 0),
		})
	}

	return report
}

func metricInt(values []reportValue, i int) int {
	if i >= len(values) {
		return 0
	}
	n, _ := strconv.Atoi(values[i].Value)
	return n
}

func metricFloat(values []reportValue, i int) float64 {
	if i >= len(values) {
		return 0
	}
	f, _ := strconv.ParseFloat(values[i].Value, 64)
	return f
}
