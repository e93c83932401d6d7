package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/api/handlers"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/api/middleware"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/config"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/dashboard"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/loads"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/logger"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/prefs"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/source"
)

func main() {
	// Parse command-line flags
	var (
		port      = flag.String("port", "", "HTTP server port (overrides PORT env)")
		sourceLoc = flag.String("source", "", "Inventory source location (overrides SOURCE_URL env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *sourceLoc != "" {
		cfg.SourceLocation = *sourceLoc
	}

	if cfg.SourceLocation == "" {
		log.Fatal().Msg("No inventory source configured - set SOURCE_URL or pass -source")
	}

	src, err := source.ForLocation(cfg.SourceLocation, cfg.GCSCredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Str("location", cfg.SourceLocation).Msg("Failed to create inventory source")
	}

	costCenters, err := inventory.LoadCostCenters(cfg.CostCentersFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.CostCentersFile).Msg("Cost center mapping unavailable - codes will pass through unresolved")
		costCenters = inventory.CostCenterMap{}
	}

	store := dashboard.NewStore(log, cfg.LowStockThreshold)
	loadStore := loads.NewStore()
	prefStore := prefs.NewStore(cfg.PrefsFile)

	inventoryHandler := handlers.NewInventoryHandler(store, loadStore, src, costCenters, prefStore, log)

	// Load once on startup so the dashboard is populated before the first
	// request arrives. A failure here is not fatal: the data can be loaded
	// later via POST /api/load.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := inventoryHandler.Refresh(startupCtx); err != nil {
		log.Error().Err(err).Msg("Initial inventory load failed")
	}
	cancelStartup()

	// Schedule periodic refreshes when configured
	var scheduler *cron.Cron
	if cfg.RefreshCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.RefreshCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := inventoryHandler.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled inventory refresh failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefreshCron).Msg("Invalid refresh schedule")
		}
		scheduler.Start()
		log.Info().Str("schedule", cfg.RefreshCron).Msg("Scheduled periodic inventory refresh")
	}

	// Create router
	router := mux.NewRouter()
	inventoryHandler.Routes(router)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(router),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("source", src.Name()).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
