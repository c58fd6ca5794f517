// Package app assembles the run controller and its collaborators from the
// configuration. Both binaries start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/ai"
	"go-autoapply/internal/answer"
	"go-autoapply/internal/browser"
	"go-autoapply/internal/config"
	"go-autoapply/internal/database"
	"go-autoapply/internal/dedup"
	"go-autoapply/internal/engine"
	"go-autoapply/internal/filter"
	"go-autoapply/internal/form"
	"go-autoapply/internal/listing"
	"go-autoapply/internal/models"
	"go-autoapply/internal/profile"
	"go-autoapply/internal/records"
	"go-autoapply/internal/reporter"
	"go-autoapply/internal/runner"
	"go-autoapply/internal/site"
	"go-autoapply/internal/store"
	"go-autoapply/internal/tabs"
)

// App is a wired process. Close releases everything Build opened.
type App struct {
	Config  *config.Config
	Adapter *site.Adapter
	State   *store.State
	Engine  *engine.Engine
	Runner  *runner.Runner
	Events  *reporter.Recorder
	Logger  arbor.ILogger

	closers []func() error
}

// Build opens the store, the record store, the browser and the listing page.
// extra notifiers (the websocket hub) receive every run event.
func Build(ctx context.Context, cfg *config.Config, logger arbor.ILogger, extra ...reporter.Notifier) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Events: reporter.NewRecorder(200)}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	adapter, err := site.Lookup(cfg.Site)
	if err != nil {
		return nil, err
	}
	a.Adapter = adapter

	kv, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.closers = append(a.closers, kv.Close)
	a.State = store.NewState(kv, adapter.Site)

	eng, err := a.buildEngine(ctx)
	if err != nil {
		return nil, err
	}
	a.Engine = eng

	pm, err := browser.NewPlaywright(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pm.Close)

	page, opener, err := pm.Session(a.cookies())
	if err != nil {
		return nil, err
	}
	searchURL := cfg.SearchURL
	if searchURL == "" {
		searchURL = adapter.SearchURL
	}
	if err := page.Goto(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("failed to open search page: %w", err)
	}
	page.Humanize = !cfg.Browser.Headless
	logger.Info().Str("url", searchURL).Msg("🔍 search page loaded")

	coord := tabs.NewCoordinator(opener, page, eng.Attach(), logger)
	coord.LoadTimeout = cfg.Timeouts.DocumentReady

	notifiers := reporter.Multi{reporter.Log{Logger: logger}, a.Events}
	if cfg.Telegram.Token != "" {
		tg, err := reporter.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("⚠️ telegram disabled")
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	notifiers = append(notifiers, extra...)

	a.Runner = &runner.Runner{
		Source:      listing.NewBoard(adapter, page, logger),
		Coordinator: coord,
		State:       a.State,
		Dedup:       dedup.NewCache(cfg.Dedup.CachePath, dedup.DefaultTTL, logger),
		Filter:      filter.New(cfg.Filter),
		Notifier:    notifiers,
		Config: runner.Config{
			MaxJobs:  cfg.MaxJobs,
			ResumeID: cfg.ResumePath,
			Timeouts: cfg.Timeouts,
		},
		Logger: logger,
	}
	ok = true
	return a, nil
}

func (a *App) buildEngine(ctx context.Context) (*engine.Engine, error) {
	cfg := a.Config

	completer, err := ai.NewCompleter(ctx, cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle: %w", err)
	}
	oracle := ai.NewClient(completer, profile.NewLoader(filepath.Dir(cfg.ResumePath)), ai.NewLimiter(cfg.Oracle.RateLimit), a.Logger)

	prof := profileOrEmpty(cfg.ProfilePath, a.Logger)

	rec, err := a.buildRecords(ctx)
	if err != nil {
		return nil, err
	}

	return &engine.Engine{
		Adapter: a.Adapter,
		Answerer: &answer.Answerer{
			Adapter: a.Adapter,
			Oracle:  oracle,
			Writer: &form.Writer{
				Adapter:            a.Adapter,
				Settle:             cfg.Timeouts.Settle,
				IntraField:         cfg.Timeouts.IntraField,
				DateFallbackMonths: cfg.Policy.StartDateMonths,
			},
			Policy:     cfg.Policy,
			Profile:    prof,
			ProfileKey: cfg.ResumePath,
			Logger:     a.Logger,
		},
		State:   a.State,
		Records: rec,
		Config: engine.Config{
			MaxSteps: cfg.MaxSteps,
			DryRun:   cfg.DryRun,
			Timeouts: cfg.Timeouts,
		},
		Logger: a.Logger,
	}, nil
}

func (a *App) buildRecords(ctx context.Context) (records.Store, error) {
	cfg := a.Config.Records
	switch cfg.Backend {
	case "rest":
		a.Logger.Info().Str("url", cfg.BaseURL).Msg("🗄️ recording applications over REST")
		return records.NewRecorder(records.NewClient(cfg.BaseURL, 15*time.Second), cfg.UserID, a.Logger), nil
	case "postgres":
		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, func() error { repo.Close(); return nil })
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		a.Logger.Info().Msg("🗄️ recording applications in postgres")
		return records.NewRecorder(repo, cfg.UserID, a.Logger), nil
	}
	a.Logger.Info().Msg("application records disabled")
	return nil, nil
}

func profileOrEmpty(path string, logger arbor.ILogger) (p models.Profile) {
	if path == "" {
		return p
	}
	p, err := profile.LoadProfile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("⚠️ could not load profile, continuing without it")
	}
	return p
}

// cookies loads cookies-<site>.json from the cookie directory, if present.
func (a *App) cookies() []playwright.OptionalCookie {
	path := filepath.Join(a.Config.Browser.CookiesPath, fmt.Sprintf("cookies-%s.json", a.Adapter.Site))
	c, err := browser.LoadCookies(path)
	if err != nil {
		a.Logger.Warn().Err(err).Str("path", path).Msg("⚠️ no cookies loaded, the session may be logged out")
		return nil
	}
	a.Logger.Info().Int("count", len(c)).Msg("🍪 cookies loaded")
	return c
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
