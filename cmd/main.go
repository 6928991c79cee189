package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"foodvision-backend/config"
	"foodvision-backend/controllers"
	"foodvision-backend/routes"
	"foodvision-backend/services"
	"foodvision-backend/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.InitDB()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Fatal("Invalid time zone", zap.String("tz", cfg.TimeZone), zap.Error(err))
	}

	store, err := utils.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.MediaBaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize media store", zap.Error(err))
	}

	// One long-lived client per provider. No client timeout: the pipeline
	// blocks on a slow provider rather than cutting it off.
	primary := services.NewClassifierService(cfg.ClassifierURL, &http.Client{}, logger)
	fallback := services.NewGeminiService(cfg.GeminiEndpoint, cfg.GeminiAPIKey, &http.Client{}, logger)
	gate := services.NewConfidenceGate(primary, fallback, logger)

	svc := services.NewAnalysisService(db, gate, store, loc, logger)
	ctl := controllers.NewAnalysisController(svc, logger)

	r := routes.SetupRouter(ctl)
	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
