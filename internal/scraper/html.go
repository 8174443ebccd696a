package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// fetchFromHTML is the fallback source: the site's top listing page,
// rendered by the SWELL theme. It cannot recover publish dates or
// authors; every article is stamped with the scrape time, which makes
// repeated fallback runs look newer than the watermark. Known
// limitation, kept as-is.
func (s *Scraper) fetchFromHTML(ctx context.Context, siteURL string) ([]Article, error) {
	resp, err := s.get(ctx, siteURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, fmt.Errorf("fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	return parseArticleList(doc, siteURL), nil
}

// parseArticleList extracts article blocks from a SWELL-theme listing
// document. Blocks without a link are skipped, taxonomy and pagination
// links are skipped, and URLs are deduplicated within the run.
func parseArticleList(doc *goquery.Document, baseURL string) []Article {
	now := time.Now()
	seen := make(map[string]bool)
	var articles []Article

	doc.Find("li.p-postList__item").Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find("a.p-postList__link").Attr("href")
		if !ok || href == "" {
			return
		}

		articleURL := href
		if strings.HasPrefix(articleURL, "/") {
			articleURL = baseURL + articleURL
		}

		if seen[articleURL] {
			return
		}
		if strings.Contains(articleURL, "/category/") ||
			strings.Contains(articleURL, "/tag/") ||
			strings.Contains(articleURL, "/page/") {
			return
		}
		seen[articleURL] = true

		title := CleanText(item.Find("h2.p-postList__title").Text())
		if title == "" {
			title = titleFromURL(articleURL)
		}

		article := Article{
			URL:           articleURL,
			Title:         title,
			PublishedDate: now,
		}

		if src, ok := item.Find("img.c-postThumb__img").Attr("src"); ok && src != "" {
			article.OGImage = &src
		}

		if category := CleanText(item.Find("span.c-postThumb__cat").Text()); category != "" {
			article.Category = &category
		}

		articles = append(articles, article)
	})

	return articles
}

// titleFromURL derives a readable title from the URL slug: percent
// decoding, hyphens to spaces, first letter capitalized.
func titleFromURL(articleURL string) string {
	trimmed := strings.Trim(articleURL, "/")
	parts := strings.Split(trimmed, "/")
	slug := parts[len(parts)-1]

	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}

	title := strings.ReplaceAll(slug, "-", " ")
	runes := []rune(title)
	if len(runes) == 0 {
		return title
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
