package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-autoapply/internal/config"
	"go-autoapply/internal/database"
)

// Connects to the application database, applies the schema and prints the
// server version.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cfg.Records.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set. Please check your .env file.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Attempting to connect to PostgreSQL...")
	repo, err := database.ConnectDB(ctx, cfg.Records.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to the database: %v", err)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("📦 Schema is up to date")

	version, err := repo.Version(ctx)
	if err != nil {
		log.Fatalf("❌ Query failed: %v", err)
	}
	fmt.Println("✅ Successfully connected!")
	fmt.Println("🚀 Database Version:", version)
}
