package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/cache"
	"github.com/creators-jp/portal-server/internal/config"
	"github.com/creators-jp/portal-server/internal/database"
	"github.com/creators-jp/portal-server/internal/discord"
	"github.com/creators-jp/portal-server/internal/handler"
	"github.com/creators-jp/portal-server/internal/jobs"
	"github.com/creators-jp/portal-server/internal/middleware"
	"github.com/creators-jp/portal-server/internal/redis"
	"github.com/creators-jp/portal-server/internal/report"
	"github.com/creators-jp/portal-server/internal/repository"
	"github.com/creators-jp/portal-server/internal/scraper"
	"github.com/creators-jp/portal-server/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != "" || os.Getenv("ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	responseCache := cache.New(redisClient.Client)

	userRepo := repository.NewUserRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	articleRepo := repository.NewArticleRepository(db.DB)
	summaryRepo := repository.NewSummaryRepository(db.DB)
	notificationLogRepo := repository.NewNotificationLogRepository(db.DB)

	var gaFetcher service.GAReportFetcher
	var gscFetcher service.GSCReportFetcher
	if cfg.GoogleServiceAccountKey != "" {
		tokens, err := report.NewTokenSource(cfg.GoogleServiceAccountKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse google service account key")
		}
		gaFetcher = report.NewGAClient(tokens)
		gscFetcher = report.NewGSCClient(tokens)
	} else {
		log.Warn().Msg("google service account key not set, report endpoints disabled")
	}

	authService := service.NewAuthService(userRepo, sessionRepo)
	userService := service.NewUserService(db, userRepo, sessionRepo, authService)
	articleService := service.NewArticleService(articleRepo, responseCache)
	syncService := service.NewSyncService(cfg, articleRepo, scraper.New(), responseCache)
	reportService := service.NewReportService(cfg, responseCache, gaFetcher, gscFetcher)
	summaryService := service.NewSummaryService(summaryRepo, responseCache)
	notifyService := service.NewNotifyService(cfg, discord.NewClient(), reportService, summaryRepo, notificationLogRepo)

	router := &handler.Router{
		Health: handler.NewHealthHandler(cfg, db, handler.RedisPinger(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		Auth:     handler.NewAuthHandler(authService),
		Articles: handler.NewArticleHandler(articleService, syncService, notifyService),
		Reports:  handler.NewReportHandler(reportService, summaryService),
		Admin:    handler.NewAdminHandler(userService, notifyService, responseCache),
		Session:  middleware.NewSessionMiddleware(authService),
	}

	cleanupJob := jobs.NewCleanupJob(sessionRepo, config.SessionSweepInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router.Routes(),
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
