package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"log"
	"os"

	"docrisk-backend/internal/bootstrap"
	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/storage/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required")
		os.Exit(1)
	}
	ctx := context.Background()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, bootstrap.DBOptions(cfg, db.MigrateOptions()))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
	names, _ := db.MigrationNames()
	log.Printf("migrations applied: %d embedded", len(names))
}
