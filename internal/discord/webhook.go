// Package discord posts portal notifications to Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/creators-jp/portal-server/internal/config"
	"github.com/creators-jp/portal-server/internal/report"
)

const (
	colorPrimary = 0x3498db
	colorSuccess = 0x2ecc71
	colorError   = 0xe74c3c

	footerText = "Creators Japan Portal"
)

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Client struct {
	client *http.Client
}

func NewClient() *Client {
	return &Client{client: &http.Client{Timeout: config.UpstreamTimeout}}
}

// Send posts a message to a webhook. Discord answers 204 on success
// unless ?wait=true is used.
func (c *Client) Send(ctx context.Context, webhookURL string, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// MonthlyReportMessage builds the monthly summary embed from the GA
// and GSC reports of the same period.
func MonthlyReportMessage(siteName string, ga *report.GAReport, gsc *report.GSCReport) Message {
	embed := Embed{
		Title:       fmt.Sprintf("📊 %s 月次レポート", formatMonth(ga.Period)),
		Description: siteName,
		Color:       colorPrimary,
		Fields: []EmbedField{
			{Name: "📈 ページビュー", Value: formatCount(ga.Summary.PageViews), Inline: true},
			{Name: "👥 ユーザー数", Value: formatCount(ga.Summary.Users), Inline: true},
			{Name: "🆕 新規ユーザー", Value: formatCount(ga.Summary.NewUsers), Inline: true},
			{Name: "🔍 検索クリック", Value: formatCount(gsc.Summary.Clicks), Inline: true},
			{Name: "👁️ 検索表示回数", Value: formatCount(gsc.Summary.Impressions), Inline: true},
			{Name: "📍 平均掲載順位", Value: strconv.FormatFloat(gsc.Summary.Position, 'f', 1, 64), Inline: true},
		},
		Footer:    &EmbedFooter{Text: footerText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if len(ga.TopPages) > 0 {
		var lines []string
		for i, p := range ga.TopPages {
			if i == 3 {
				break
			}
			label := p.Title
			if label == "" {
				label = p.Path
			}
			lines = append(lines, fmt.Sprintf("%d. %s (%s PV)", i+1, label, formatCount(p.Views)))
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  "🏆 人気ページ Top 3",
			Value: strings.Join(lines, "\n"),
		})
	}

	if len(gsc.TopQueries) > 0 {
		var lines []string
		for i, q := range gsc.TopQueries {
			if i == 3 {
				break
			}
			lines = append(lines, fmt.Sprintf("%d. %q (%d clicks)", i+1, q.Query, q.Clicks))
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  "🔎 人気検索キーワード Top 3",
			Value: strings.Join(lines, "\n"),
		})
	}

	return Message{Embeds: []Embed{embed}}
}

// ArticleMessage builds the new-article announcement embed.
func ArticleMessage(siteName, title, articleURL string) Message {
	return Message{Embeds: []Embed{{
		Title:       "📝 新規記事が公開されました",
		Description: fmt.Sprintf("**%s**\n\n%s", title, articleURL),
		Color:       colorSuccess,
		Fields: []EmbedField{
			{Name: "サイト", Value: siteName, Inline: true},
		},
		Footer:    &EmbedFooter{Text: footerText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}}
}

// ErrorMessage builds a system error embed.
func ErrorMessage(errorType, errorMessage string) Message {
	return Message{Embeds: []Embed{{
		Title:       "⚠️ システムエラー",
		Description: errorMessage,
		Color:       colorError,
		Fields: []EmbedField{
			{Name: "エラータイプ", Value: errorType, Inline: true},
		},
		Footer:    &EmbedFooter{Text: footerText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}}
}

// formatMonth renders YYYY-MM as a Japanese month label.
func formatMonth(period string) string {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return period
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return period
	}
	return fmt.Sprintf("%s年%d月", parts[0], month)
}

// formatCount groups digits in threes, matching the locale formatting
// the notifications have always used.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if n < 0 {
		return "-" + b.String()
	}
	return b.String()
}
