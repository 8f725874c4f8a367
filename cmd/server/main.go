package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"media-gateway/internal/api"
	"media-gateway/internal/config"
	"media-gateway/internal/database"
	"media-gateway/internal/extractor"
	"media-gateway/internal/logging"
	"media-gateway/internal/media"
	"media-gateway/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workspace, err := media.NewWorkspace(cfg.TempDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open workspace")
	}

	if cfg.YtdlpInstall {
		if err := extractor.EnsureInstalled(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to install yt-dlp")
		}
	}
	engine := extractor.NewYTDLP(cfg.YtdlpPath)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	store := database.NewJobStore(db)

	hub := ws.NewHub()
	go hub.Run(ctx)

	service := media.NewService(engine, workspace, cfg.UserAgent, store, hub)
	r := api.NewRouter(api.Deps{
		Service: service,
		Jobs:    store,
		Hub:     hub,
		Limiter: api.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info().Str("port", cfg.Port).Str("base", workspace.Base()).Str("db_driver", cfg.DBDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to run server")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("Shutting down")

	// In-flight downloads get a grace period to finish and respond.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown incomplete")
	}
}
