package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pulmoscan/internal/backend"
	"pulmoscan/internal/cache"
	"pulmoscan/internal/config"
	"pulmoscan/internal/model"
	"pulmoscan/internal/service"
	"pulmoscan/internal/transport/rest"
)

// @title PulmoScan Triage API
// @version 1.0
// @description Chest X-ray triage: 3-class probability distribution with clinical guidance
// @BasePath /api
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Backend registry, in priority order. A model that fails to load
	// is skipped with a warning; the service still starts.
	registry := backend.NewRegistry()

	localModel, err := backend.NewLocal("local",
		filepath.Join(cfg.ModelDir, "pulmoscan_model.onnx"),
		filepath.Join(cfg.ModelDir, "model_config.json"),
		model.ModeLocalMultiClass)
	if err != nil {
		log.Printf("Warning: local multi-class model not loaded: %v", err)
	} else {
		defer localModel.Close()
		registry.Add(localModel)
		log.Printf("Local multi-class model loaded from %s", cfg.ModelDir)
	}

	pretrained, err := backend.NewLocal("pretrained",
		filepath.Join(cfg.ModelDir, "pretrained_xray.onnx"),
		filepath.Join(cfg.ModelDir, "pretrained_config.json"),
		model.ModeLocalPretrained)
	if err != nil {
		log.Printf("Warning: pretrained model not loaded: %v", err)
	} else {
		defer pretrained.Close()
		registry.Add(pretrained)
		log.Printf("Pretrained two-class model loaded from %s", cfg.ModelDir)
	}

	// Optional Redis cache for remote scores
	var scoreCache cache.ScoreCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("Warning: Redis unreachable, score cache disabled: %v", err)
		} else {
			scoreCache = cache.NewScoreCache(rdb)
			log.Println("Connected to Redis, remote score cache enabled")
		}
	}

	if cfg.RemoteURL != "" {
		remote := backend.NewRemote(cfg.RemoteURL, cfg.RemoteToken,
			time.Duration(cfg.RemoteTimeoutMS)*time.Millisecond,
			cfg.RemoteRetries, scoreCache)
		registry.Add(remote)
		log.Printf("Remote classification service configured: %s", cfg.RemoteURL)
	}

	catalog := model.NewClinicalCatalog()

	var fallback *service.Fallback
	if cfg.FallbackEnabled {
		fallback = service.NewFallback(catalog)
	} else {
		log.Println("Warning: offline fallback disabled")
	}

	predictionSvc := service.NewPredictionService(registry, catalog, fallback)

	router := rest.NewRouter(&rest.Container{
		PredictionService: predictionSvc,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Printf("Classes: %v", model.ClassNames())
		log.Println("Endpoints:")
		log.Println("  GET  /api/health")
		log.Println("  GET  /api/classes")
		log.Println("  POST /api/predict")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
