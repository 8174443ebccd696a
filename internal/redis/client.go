package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/creators-jp/portal-server/internal/model"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// Cache key namespaces. All colon-delimited; the site token is always
// the validated lower-case site name, never raw user input.

func ArticlesKey(site model.Site) string {
	return fmt.Sprintf("articles:%s", site)
}

func GAKey(site model.Site, period string) string {
	return fmt.Sprintf("ga:%s:%s", site, period)
}

func GSCKey(site model.Site, period string) string {
	return fmt.Sprintf("gsc:%s:%s", site, period)
}

func SummaryKey(site model.Site, yearMonth string) string {
	return fmt.Sprintf("summary:%s:%s", site, yearMonth)
}
