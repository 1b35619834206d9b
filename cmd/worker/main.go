package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"licgate/internal/pkg/logger"
	"licgate/internal/platform/config"
	"licgate/internal/platform/database"
	"licgate/internal/platform/repositories"
	"licgate/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	maintenance := workers.NewMaintenance(
		repositories.NewLicenseRepository(db),
		repositories.NewAPILogRepository(db),
	)

	sweepInterval := cfg.Worker.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	pruneInterval := cfg.Worker.PruneInterval
	if pruneInterval <= 0 {
		pruneInterval = 24 * time.Hour
	}

	log.Info().
		Dur("sweep_interval", sweepInterval).
		Dur("prune_interval", pruneInterval).
		Msg("worker starting")

	// Run both jobs once at startup so a long-stopped worker catches up.
	maintenance.SweepExpired()
	maintenance.PruneLogs(cfg.Worker.LogRetentionDays)

	sweepTicker := time.NewTicker(sweepInterval)
	pruneTicker := time.NewTicker(pruneInterval)
	defer sweepTicker.Stop()
	defer pruneTicker.Stop()

	for {
		select {
		case <-sweepTicker.C:
			maintenance.SweepExpired()
		case <-pruneTicker.C:
			maintenance.PruneLogs(cfg.Worker.LogRetentionDays)
		}
	}
}
