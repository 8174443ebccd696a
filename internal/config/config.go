package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/model"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	SiteURLPublic string `env:"SITE_URL_PUBLIC" envDefault:"https://creators-jp.com"`
	SiteURLSalon  string `env:"SITE_URL_SALON" envDefault:"https://salon.creators-jp.com"`

	GA4PropertyIDPublic string `env:"GA4_PROPERTY_ID_PUBLIC"`
	GA4PropertyIDSalon  string `env:"GA4_PROPERTY_ID_SALON"`

	DiscordWebhookURLPublic string `env:"DISCORD_WEBHOOK_URL_PUBLIC"`
	DiscordWebhookURLSalon  string `env:"DISCORD_WEBHOOK_URL_SALON"`

	// JSON service-account key used for both GA4 and Search Console.
	GoogleServiceAccountKey string `env:"GOOGLE_SERVICE_ACCOUNT_KEY"`
}

// SiteConfig bundles the per-site external endpoints.
type SiteConfig struct {
	Name              string
	URL               string
	GA4PropertyID     string
	DiscordWebhookURL string
}

func (c *Config) Site(site model.Site) SiteConfig {
	if site == model.SiteSalon {
		return SiteConfig{
			Name:              "CREATORS JAPAN サロン",
			URL:               c.SiteURLSalon,
			GA4PropertyID:     c.GA4PropertyIDSalon,
			DiscordWebhookURL: c.DiscordWebhookURLSalon,
		}
	}
	return SiteConfig{
		Name:              "CREATORS JAPAN 公式サイト",
		URL:               c.SiteURLPublic,
		GA4PropertyID:     c.GA4PropertyIDPublic,
		DiscordWebhookURL: c.DiscordWebhookURLPublic,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	for name, u := range map[string]string{
		"SITE_URL_PUBLIC": c.SiteURLPublic,
		"SITE_URL_SALON":  c.SiteURLSalon,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must be an absolute http(s) URL", name)
		}
	}

	if isProduction {
		if c.GoogleServiceAccountKey == "" {
			log.Warn().Msg("GOOGLE_SERVICE_ACCOUNT_KEY is empty in production: GA4/GSC reports will fail")
		}
		if c.DiscordWebhookURLPublic == "" && c.DiscordWebhookURLSalon == "" {
			log.Warn().Msg("no Discord webhook URLs configured in production: notifications disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
