package config

import (
	"fmt"
	"os"

	"foodvision-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config carries everything resolved from the environment at startup.
// Outbound endpoints are injected from here instead of living as string
// literals next to the calls.
type Config struct {
	Port string

	// Primary classifier service, e.g. "http://127.0.0.1:5000"
	ClassifierURL string

	// Fallback generative vision provider
	GeminiEndpoint string
	GeminiAPIKey   string

	// Durable media store
	S3Bucket     string
	S3Region     string
	MediaBaseURL string

	// Display time zone for analysis timestamps (not UTC on purpose)
	TimeZone string
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		ClassifierURL:  getenv("CLASSIFIER_URL", "http://127.0.0.1:5000"),
		GeminiEndpoint: getenv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getenv("S3_REGION", os.Getenv("AWS_REGION")),
		MediaBaseURL:   os.Getenv("MEDIA_BASE_URL"),
		TimeZone:       getenv("TIMEZONE", "Asia/Ho_Chi_Minh"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		return nil, err
	}
	return db, nil
}

func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.HealthPlan{},
		&models.AnalysisRecord{},
		&models.IngredientRecord{},
	)
	if err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
