package main

import (
	"context"
	"log"

	"filechat-be/internal/config"
	"filechat-be/internal/pkg/logger"
	"filechat-be/internal/repository/implementation"
	"filechat-be/internal/service"
	"filechat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Runs one retention sweep immediately, outside the daily schedule.
func main() {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("Warning: Could not load .env: %v", err)
	}
	cfg := config.Load()

	color.Cyan("🧹 Manual retention sweep")
	color.Yellow("Document lifetime: %d minutes", cfg.Retention.DocumentLifetimeMin)

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("DB connection failed: %v", err)
		return
	}

	chunkRepo := implementation.NewChunkRepository(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	cleanup := service.NewCleanupService(chunkRepo, nil, cfg.Retention, sysLogger)

	deleted, err := cleanup.SweepNow(context.Background())
	if err != nil {
		color.Red("Sweep failed: %v", err)
		return
	}
	color.Green("Done. Deleted %d expired chunks.", deleted)
}
