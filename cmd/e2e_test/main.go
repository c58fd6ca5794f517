package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-autoapply/internal/config"
	"go-autoapply/internal/database"
	"go-autoapply/internal/logger"
	"go-autoapply/internal/models"
	"go-autoapply/internal/records"
	"go-autoapply/internal/reporter"
)

// Pushes a fake completed application through the record store and the
// Telegram reporter, the two outward effects of a finished job.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	lg := logger.New(logger.Options{Level: "debug"})
	ctx := context.Background()

	var backend records.Backend
	switch cfg.Records.Backend {
	case "postgres":
		repo, err := database.ConnectDB(ctx, cfg.Records.DatabaseURL)
		if err != nil {
			log.Fatalf("DB connection failed: %v", err)
		}
		defer repo.Close()
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		backend = repo
	case "rest":
		backend = records.NewClient(cfg.Records.BaseURL, 15*time.Second)
	default:
		log.Fatal("records.backend must be rest or postgres for this check")
	}

	job := models.JobDescriptor{
		Site:    models.Site(cfg.Site),
		JobID:   fmt.Sprintf("e2e-%d", time.Now().Unix()),
		URL:     fmt.Sprintf("https://www.stepstone.de/stellenangebote--e2e-%d.html", time.Now().Unix()),
		Title:   "Senior Backend Engineer (Go/PostgreSQL)",
		Company: "E2E Test GmbH",
	}
	entries := []models.QAEntry{
		{Question: "Anrede", Answer: "Herr", Source: models.SourceHardcoded, Confidence: 1},
		{Question: "Wie viele Jahre Erfahrung haben Sie mit Go?", Answer: "5", Source: models.SourceOracle, Confidence: 0.8, Model: cfg.Oracle.Model},
	}
	status := models.FormStatus{State: models.FormCompleted, ApplicationID: "E2E", UpdatedAt: time.Now()}

	rec := records.NewRecorder(backend, cfg.Records.UserID, lg)
	id, err := rec.RecordApplication(ctx, job, status, entries)
	if err != nil {
		log.Fatalf("❌ Could not record application: %v", err)
	}
	log.Printf("✅ Application recorded: %s", id)

	if cfg.Telegram.Token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping the Telegram message")
		return
	}
	tg, err := reporter.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, lg)
	if err != nil {
		log.Fatalf("Failed to initialize telegram bot: %v", err)
	}
	tg.Notify(ctx, reporter.Event{
		Type:   reporter.EventJobDone,
		RunID:  "e2e",
		Result: &models.JobResult{Job: job, Outcome: models.OutcomeSuccess, ApplicationID: "E2E"},
		Time:   time.Now(),
	})
	log.Println("✅ Sent the job result to Telegram")
}
