// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/backend-go/internal/api"
	"github.com/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/backend-go/internal/repository/postgres"
	"github.com/shelfwatch/backend-go/internal/service"
	"github.com/shelfwatch/backend-go/internal/storage"
	"github.com/shelfwatch/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	timelineCache, err := cache.NewTimelineCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize timeline cache")
	}

	productRepo := postgres.NewProductRepository(db)
	salesRepo := postgres.NewSalesHistoryRepository(db)
	projectionRepo := postgres.NewProjectionRepository(db)
	orderRepo := postgres.NewPurchaseOrderRepository(db)
	periodRepo := postgres.NewForecastPeriodRepository(db)

	timelineOpts := []service.TimelineServiceOption{
		service.WithDefaultLeadTime(cfg.App.DefaultLeadTimeDays),
	}
	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize snapshot storage")
		}
		timelineOpts = append(timelineOpts, service.WithSnapshotStorage(store, cfg.App.SnapshotPrefix))
	}

	timelineService := service.NewTimelineService(
		productRepo, salesRepo, projectionRepo, orderRepo, timelineCache, timelineOpts...)
	periodService := service.NewForecastPeriodService(
		periodRepo, productRepo, projectionRepo, timelineCache)

	router := api.NewRouter(&api.Services{
		TimelineService:       timelineService,
		ForecastPeriodService: periodService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
