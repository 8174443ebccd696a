package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/config"
	"github.com/creators-jp/portal-server/internal/httputil"
)

// Pinger is satisfied by both *database.DB and the redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	ping func(ctx context.Context) error
}

func (p redisPinger) Ping(ctx context.Context) error { return p.ping(ctx) }

// RedisPinger adapts a go-redis style Ping to the Pinger interface.
func RedisPinger(ping func(ctx context.Context) error) Pinger {
	return redisPinger{ping: ping}
}

type HealthHandler struct {
	cfg   *config.Config
	db    Pinger
	redis Pinger
}

func NewHealthHandler(cfg *config.Config, db, redis Pinger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, redis: redis}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
	defer cancel()

	dbOK := true
	if err := h.db.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health: database ping failed")
		dbOK = false
	}

	redisOK := true
	if err := h.redis.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health: redis ping failed")
		redisOK = false
	}

	status := "ok"
	if !dbOK || !redisOK {
		status = "degraded"
	}

	httputil.WriteSuccess(w, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"bindings": map[string]bool{
			"database":      dbOK,
			"redis":         redisOK,
			"googleReports": h.cfg.GoogleServiceAccountKey != "",
			"discordPublic": h.cfg.DiscordWebhookURLPublic != "",
			"discordSalon":  h.cfg.DiscordWebhookURLSalon != "",
		},
	})
}
