package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"go-autoapply/internal/browser"
	"go-autoapply/internal/config"
	"go-autoapply/internal/logger"
	"go-autoapply/internal/site"
)

// Opens the site's search page with the saved session and reports what the
// listing selectors see.
func main() {
	fmt.Println("🌐 Testing Browser Manager...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	lg := logger.New(logger.Options{Level: "debug"})
	adapter, err := site.Lookup(cfg.Site)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pm, err := browser.NewPlaywright(ctx, cfg.Browser, lg)
	if err != nil {
		log.Fatalf("Failed to create Playwright: %v", err)
	}
	defer pm.Close()

	cookies, err := browser.LoadCookies(filepath.Join(cfg.Browser.CookiesPath, fmt.Sprintf("cookies-%s.json", cfg.Site)))
	if err != nil {
		log.Printf("⚠️ No cookies: %v", err)
	}
	page, _, err := pm.Session(cookies)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	url := cfg.SearchURL
	if url == "" {
		url = adapter.SearchURL
	}
	fmt.Printf("🔍 Navigating to %s...\n", url)
	if err := page.Goto(ctx, url); err != nil {
		log.Fatalf("Failed to navigate: %v", err)
	}

	cards := page.QueryAll(adapter.Listing.Card)
	fmt.Printf("✅ %d job cards visible\n", len(cards))

	if err := page.Capture("browser_test", "search page"); err != nil {
		log.Printf("Failed to take screenshot: %v", err)
	}
	fmt.Println("✨ Test complete!")
}
