package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/recipevault-backend/internal/app"
	"github.com/yungbote/recipevault-backend/internal/handlers"
	"github.com/yungbote/recipevault-backend/internal/observability"
	"github.com/yungbote/recipevault-backend/internal/platform/gcp"
	"github.com/yungbote/recipevault-backend/internal/platform/kvstore"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
	"github.com/yungbote/recipevault-backend/internal/platform/nutrition"
	"github.com/yungbote/recipevault-backend/internal/platform/searchindex"
	"github.com/yungbote/recipevault-backend/internal/server"
	"github.com/yungbote/recipevault-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Metrics
	observability.Init()

	// KV store
	log.Info("Setting up KV store from main...")
	store, err := kvstore.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init KV store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Blob store
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}

	// Optional collaborators
	nutritionClient, err := nutrition.NewClientFromEnv(log)
	if err != nil {
		log.Error("Could not init nutrition client", "error", err)
		os.Exit(1)
	}
	if nutritionClient == nil {
		log.Info("Nutrition service not configured, enrichment disabled")
	}
	indexClient, err := searchindex.NewClientFromEnv(log)
	if err != nil {
		log.Error("Could not init search index client", "error", err)
		os.Exit(1)
	}
	if indexClient == nil {
		log.Info("Search index not configured, sync disabled")
	}

	// Services
	log.Info("Setting up Services from main...")
	imagePipeline, err := services.NewImagePipeline(log, bucketService)
	if err != nil {
		log.Error("Could not init ImagePipeline", "error", err)
		os.Exit(1)
	}
	enricher := services.NewNutritionEnricher(log, nutritionClient)
	syncer := services.NewSearchSyncer(log, indexClient)
	recipeService, err := services.NewRecipeService(log, store, imagePipeline, enricher, syncer)
	if err != nil {
		log.Error("Could not init RecipeService", "error", err)
		os.Exit(1)
	}
	batchService, err := services.NewBatchService(log, recipeService)
	if err != nil {
		log.Error("Could not init BatchService", "error", err)
		os.Exit(1)
	}

	// Handlers + Router
	log.Info("Setting up Router from main...")
	recipeHandler := handlers.NewRecipeHandler(log, recipeService, batchService)
	router := server.NewRouter(server.RouterConfig{RecipeHandler: recipeHandler})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
