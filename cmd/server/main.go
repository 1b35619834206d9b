package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"licgate/internal/api"
	"licgate/internal/api/handlers"
	"licgate/internal/api/middleware"
	"licgate/internal/engine/license"
	"licgate/internal/pkg/logger"
	"licgate/internal/platform/auth"
	"licgate/internal/platform/config"
	"licgate/internal/platform/database"
	"licgate/internal/platform/repositories"
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

	// Repositories
	licenseRepo := repositories.NewLicenseRepository(db)
	logRepo := repositories.NewAPILogRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	licenseSvc := license.NewService(licenseRepo)
	engine := license.NewEngine(licenseRepo, logRepo)

	// Handlers
	deps := &api.Dependencies{
		ValidateHandler: handlers.NewValidateHandler(engine),
		LicenseHandler:  handlers.NewLicenseHandler(licenseSvc, licenseRepo, logRepo),
		AuthHandler:     handlers.NewAuthHandler(userRepo, tokenSvc),
		UserHandler:     handlers.NewUserHandler(userRepo),
		StatsHandler:    handlers.NewStatsHandler(licenseRepo, logRepo),
		HealthHandler:   handlers.NewHealthHandler(db),
		AuthMiddleware:  middleware.NewAuthMiddleware(tokenSvc),
		RateLimiter:     middleware.NewRateLimiter(cfg.RateLimit.ValidatePerMinute),
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info().Str("addr", addr).Msg("server starting")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
