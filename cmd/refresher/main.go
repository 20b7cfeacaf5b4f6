// cmd/refresher/main.go
//
// Periodically sweeps every product that has depletion projections, asks the
// upstream report generator to regenerate them and drops cached timelines so
// the next read recomputes. A small mux server exposes health and the last
// sweep outcome.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/backend-go/internal/repository/postgres"
	"github.com/shelfwatch/backend-go/internal/service"
	"github.com/shelfwatch/backend-go/pkg/logger"
)

type sweepStatus struct {
	mu        sync.Mutex
	LastRun   time.Time `json:"last_run"`
	Refreshed int       `json:"refreshed"`
	Failed    int       `json:"failed"`
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

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

	timelineService := service.NewTimelineService(
		productRepo, salesRepo, projectionRepo, orderRepo, timelineCache,
		service.WithDefaultLeadTime(cfg.App.DefaultLeadTimeDays))

	status := &sweepStatus{}

	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		codes, err := projectionRepo.ActiveProductCodes(ctx)
		if err != nil {
			logger.Log.Error().Err(err).Msg("Refresh sweep: could not list products")
			return
		}

		refreshed, failed := 0, 0
		for _, code := range codes {
			if err := timelineService.Refresh(ctx, code); err != nil {
				logger.Log.Warn().Err(err).Str("product", code).Msg("Refresh sweep: product refresh failed")
				failed++
				continue
			}
			refreshed++
		}

		// Per-product invalidation only reaches products still projecting; a
		// final flush clears entries for products that dropped off the set.
		if err := timelineService.FlushCache(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Refresh sweep: cache flush failed")
		}

		status.mu.Lock()
		status.LastRun = time.Now().UTC()
		status.Refreshed = refreshed
		status.Failed = failed
		status.mu.Unlock()

		logger.Log.Info().Int("refreshed", refreshed).Int("failed", failed).Msg("Refresh sweep completed")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.App.RefreshCron, sweep); err != nil {
		logger.Log.Fatal().Err(err).Str("spec", cfg.App.RefreshCron).Msg("Invalid refresh cron spec")
	}
	scheduler.Start()

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		status.mu.Lock()
		defer status.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}).Methods("GET")

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("cron", cfg.App.RefreshCron).Msg("Starting refresher")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start refresher")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down refresher...")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Refresher forced to shutdown")
	}
}
