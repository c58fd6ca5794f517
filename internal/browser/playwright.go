// Package browser runs the real browser: a Playwright-driven Chromium whose
// pages implement the dom, tabs and listing views the rest of the program
// works against.
package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     config.BrowserConfig
	logger  arbor.ILogger
}

// NewPlaywright starts the driver and launches Chromium.
func NewPlaywright(ctx context.Context, cfg config.BrowserConfig, logger arbor.ILogger) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	logger.Info().Bool("headless", cfg.Headless).Msg("🌐 browser launched")
	return &PlaywrightManager{pw: pw, browser: browser, cfg: cfg, logger: logger}, nil
}

// NewContext creates a browser context carrying the session cookies.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(userAgent),
		Viewport:   &playwright.Size{Width: 1366, Height: 900},
		Locale:     playwright.String("de-DE"),
		TimezoneId: playwright.String("Europe/Berlin"),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		pm.logger.Warn().Err(err).Msg("failed to install stealth script")
	}
	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return bctx, nil
}

// Session opens a context and its listing page.
func (pm *PlaywrightManager) Session(cookies []playwright.OptionalCookie) (*Page, *Opener, error) {
	bctx, err := pm.NewContext(cookies)
	if err != nil {
		return nil, nil, err
	}
	raw, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, nil, fmt.Errorf("could not create page: %w", err)
	}
	shots := NewScreenshotter(pm.cfg.ScreenshotsDir, pm.logger)
	return newPage(raw, shots), &Opener{ctx: bctx, shots: shots, logger: pm.logger}, nil
}

func (pm *PlaywrightManager) Close() error {
	if err := pm.browser.Close(); err != nil {
		pm.logger.Warn().Err(err).Msg("failed to close browser")
	}
	return pm.pw.Stop()
}
