package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// perPage is the WP REST API maximum.
const perPage = 100

// wpPost mirrors the /wp-json/wp/v2/posts item shape with _embed.
type wpPost struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Excerpt *struct {
		Rendered string `json:"rendered"`
	} `json:"excerpt"`
	Embedded *struct {
		Terms [][]struct {
			Name string `json:"name"`
		} `json:"wp:term"`
		FeaturedMedia []struct {
			SourceURL string `json:"source_url"`
		} `json:"wp:featuredmedia"`
		Author []struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"_embedded"`
}

// fetchFromAPI pages through the REST listing, following the
// X-WP-TotalPages hint. A 400 on a page means the index ran past the
// end and terminates the loop normally; everything else unexpected is
// a "source unusable" error that triggers the HTML fallback upstream.
func (s *Scraper) fetchFromAPI(ctx context.Context, siteURL string) ([]Article, error) {
	var all []Article

	for page := 1; ; page++ {
		apiURL := fmt.Sprintf("%s/wp-json/wp/v2/posts?per_page=%d&page=%d&_embed", siteURL, perPage, page)

		resp, err := s.get(ctx, apiURL, "application/json")
		if err != nil {
			return nil, fmt.Errorf("fetch posts page %d: %w", page, err)
		}

		if resp.StatusCode == http.StatusBadRequest {
			resp.Body.Close()
			break
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch posts page %d: HTTP %d", page, resp.StatusCode)
		}

		var posts []wpPost
		err = json.NewDecoder(resp.Body).Decode(&posts)
		totalPages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode posts page %d: %w", page, err)
		}

		if len(posts) == 0 {
			break
		}

		for _, post := range posts {
			all = append(all, parseWPPost(post))
		}

		if totalPages <= 1 || page >= totalPages {
			break
		}
	}

	return all, nil
}

func parseWPPost(post wpPost) Article {
	article := Article{
		URL:           post.Link,
		Title:         CleanText(post.Title.Rendered),
		PublishedDate: parseWPDate(post.Date),
	}

	if post.ID != 0 {
		id := post.ID
		article.WPID = &id
	}

	if post.Excerpt != nil && post.Excerpt.Rendered != "" {
		excerpt := truncate(CleanText(post.Excerpt.Rendered), 200)
		article.Excerpt = &excerpt
	}

	if emb := post.Embedded; emb != nil {
		// First term of the first taxonomy group is the category.
		if len(emb.Terms) > 0 && len(emb.Terms[0]) > 0 && emb.Terms[0][0].Name != "" {
			category := CleanText(emb.Terms[0][0].Name)
			article.Category = &category
		}
		if len(emb.FeaturedMedia) > 0 && emb.FeaturedMedia[0].SourceURL != "" {
			image := emb.FeaturedMedia[0].SourceURL
			article.OGImage = &image
		}
		if len(emb.Author) > 0 && emb.Author[0].Name != "" {
			author := CleanText(emb.Author[0].Name)
			article.Author = &author
		}
	}

	return article
}

// parseWPDate accepts the WP REST date format (ISO 8601, usually
// without a zone suffix). Unparseable dates collapse to the epoch so
// they never pass an incremental-sync watermark by accident.
func parseWPDate(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CleanText decodes HTML entities and strips markup tags from text
// pulled out of rendered fields or scraped markup.
func CleanText(raw string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(html.UnescapeString(raw), ""))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
