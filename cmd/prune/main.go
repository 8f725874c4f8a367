package main

import (
	"context"
	"flag"
	"time"

	"media-gateway/internal/config"
	"media-gateway/internal/database"
	"media-gateway/internal/logging"
	"media-gateway/internal/media"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	retention := flag.Duration("retention", cfg.Retention, "remove files and job records older than this")
	skipDB := flag.Bool("files-only", false, "leave job records untouched")
	flag.Parse()

	cutoff := time.Now().Add(-*retention)
	log.Info().Time("cutoff", cutoff).Str("base", cfg.TempDir).Msg("Pruning media directory...")

	workspace, err := media.NewWorkspace(cfg.TempDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open workspace")
	}
	removed, err := workspace.Prune(cutoff)
	if err != nil {
		log.Error().Err(err).Int("removed", removed).Msg("Some entries could not be removed")
	} else {
		log.Info().Int("removed", removed).Msg("Pruned media directory")
	}

	if *skipDB {
		log.Info().Msg("DONE!")
		return
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	deleted, err := database.NewJobStore(db).DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prune job records")
	}
	log.Info().Int64("deleted", deleted).Msg("Pruned job records")
	log.Info().Msg("DONE!")
}
