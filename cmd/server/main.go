package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"go-autoapply/internal/app"
	"go-autoapply/internal/config"
	"go-autoapply/internal/logger"
	"go-autoapply/internal/scheduler"
	"go-autoapply/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	lg := logger.New(logger.Options{Level: cfg.Logging.Level, Output: cfg.Logging.Output})
	if cfg.Logging.Level != "debug" && cfg.Logging.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(lg)
	a, err := app.Build(ctx, cfg, lg, hub)
	if err != nil {
		lg.Error().Err(err).Msg("❌ startup failed")
		os.Exit(1)
	}
	defer a.Close()

	if cfg.Schedule != "" {
		sched, err := scheduler.New(cfg.Schedule, a.Runner, lg)
		if err != nil {
			lg.Error().Err(err).Msg("❌ invalid schedule")
			os.Exit(1)
		}
		if err := sched.Start(ctx); err != nil {
			lg.Error().Err(err).Msg("❌ scheduler failed")
			os.Exit(1)
		}
		defer sched.Stop()
	}

	srv := server.New(ctx, a.Runner, a.State, hub, a.Events, lg)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info().Str("port", cfg.Server.Port).Msg("🚀 control server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("❌ server failed")
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	a.Runner.Stop()
	a.Runner.Wait()
	a.Engine.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lg.Warn().Err(err).Msg("server shutdown")
	}
}
