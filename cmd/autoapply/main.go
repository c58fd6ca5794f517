package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-autoapply/internal/app"
	"go-autoapply/internal/config"
	"go-autoapply/internal/logger"
	"go-autoapply/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (default $AUTOAPPLY_CONFIG or configs/config.yaml)")
	dryRun := flag.Bool("dry-run", false, "fill forms but never submit")
	maxJobs := flag.Int("max-jobs", -1, "stop after this many applications (0 = no limit)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *maxJobs >= 0 {
		cfg.MaxJobs = *maxJobs
	}

	lg := logger.New(logger.Options{Level: cfg.Logging.Level, Output: cfg.Logging.Output})
	lg.Info().Str("site", cfg.Site).Bool("dry_run", cfg.DryRun).Int("max_jobs", cfg.MaxJobs).Msg("🔧 config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, lg)
	if err != nil {
		lg.Error().Err(err).Msg("❌ startup failed")
		os.Exit(1)
	}
	defer a.Close()

	if cfg.Schedule == "" {
		summary, err := a.Runner.Run(ctx)
		a.Engine.Wait()
		if err != nil {
			lg.Error().Err(err).Msg("❌ run failed")
			os.Exit(1)
		}
		lg.Info().Int("processed", summary.Processed).Int("applied", summary.Success).Msg("👋 done")
		return
	}

	sched, err := scheduler.New(cfg.Schedule, a.Runner, lg)
	if err != nil {
		lg.Error().Err(err).Msg("❌ invalid schedule")
		os.Exit(1)
	}
	if err := sched.Start(ctx); err != nil {
		lg.Error().Err(err).Msg("❌ scheduler failed")
		os.Exit(1)
	}
	lg.Info().Str("schedule", cfg.Schedule).Msg("⏰ waiting for scheduled runs, Ctrl+C to quit")

	<-ctx.Done()
	sched.Stop()
	a.Runner.Stop()
	a.Runner.Wait()
	a.Engine.Wait()
}
