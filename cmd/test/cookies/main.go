package main

import (
	"fmt"
	"log"
	"path/filepath"

	"go-autoapply/internal/browser"
	"go-autoapply/internal/config"
)

func main() {
	fmt.Println("🍪 Testing cookie loading...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	path := filepath.Join(cfg.Browser.CookiesPath, fmt.Sprintf("cookies-%s.json", cfg.Site))
	cookies, err := browser.LoadCookies(path)
	if err != nil {
		log.Fatalf("Failed to load cookies: %v", err)
	}
	fmt.Printf("✅ Loaded %d cookies from %s\n", len(cookies), path)

	for _, c := range cookies {
		fmt.Printf("   %-30s %s\n", c.Name, *c.Domain)
	}
}
