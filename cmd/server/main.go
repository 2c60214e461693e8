package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/api"
	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/media"
	"github.com/rareport/importcenter/internal/pokemontcg"
	"github.com/rareport/importcenter/internal/repository"
	"github.com/rareport/importcenter/internal/repository/postgres"
	"github.com/rareport/importcenter/internal/service"
	"github.com/rareport/importcenter/internal/shopify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting import center",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("shop", cfg.Shopify.ShopDomain),
		zap.String("product_status", string(cfg.Import.ProductStatus)),
		zap.String("metadata_mode", string(cfg.Import.MetadataMode)),
	)

	// Import history is optional
	var history repository.ImportEventRepository
	if cfg.Database.Enabled() {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		history = postgres.NewRepositories(db, logger).ImportEvent
		logger.Info("Import history enabled", zap.String("database", cfg.Database.DBName))
	} else {
		logger.Info("DB_HOST not set, import history disabled")
	}

	admin := shopify.NewAdminClient(cfg.Shopify, logger)
	images := media.NewTransfer(cfg.Media, logger)
	importer := service.NewImporter(admin, images, cfg.Import, logger)
	imports := service.NewImportService(importer, service.NewStatusTracker(logger), history, logger).
		WithWebhook(cfg.Import.WebhookURL)
	searcher := pokemontcg.NewClient(cfg.PokemonTCG, logger)

	// Initialize router
	router := api.NewRouter(cfg, searcher, imports, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let running imports finish so no card is left half-created
	done := make(chan struct{})
	go func() {
		imports.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(60 * time.Second):
		logger.Warn("Timed out waiting for running imports")
	}

	logger.Info("Server exited")
}
