package main

import (
	"context"
	"log"

	"filechat-be/internal/bootstrap"
	"filechat-be/internal/config"
	"filechat-be/internal/server"
	"filechat-be/internal/tracer"
	"filechat-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		log.Panicf("Unable to migrate database: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Chat Relay...")
		if err := container.ChatService.Consume(context.Background()); err != nil {
			log.Printf("Background Chat Relay Error: %v", err)
		}
	}()
	go func() {
		log.Println("Background: Starting Retention Sweeper...")
		container.CleanupService.Run(context.Background())
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
