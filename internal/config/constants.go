package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const SessionSweepInterval = 1 * time.Hour

// Session lifetime. Sessions are fixed-lifetime, never extended.
const SessionTTL = 7 * 24 * time.Hour

// SessionCookieName carries the session id on every request.
const SessionCookieName = "cj_session"

// Article listing page size bounds
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Cache TTLs per key namespace
const (
	CacheTTLArticles = 5 * time.Minute
	CacheTTLGAReport = 1 * time.Hour
	CacheTTLGSC      = 1 * time.Hour
	CacheTTLSummary  = 24 * time.Hour
)

// Outbound HTTP timeout for WordPress, Google and Discord calls.
const UpstreamTimeout = 30 * time.Second
