package main

import (
	"fmt"
	"log"

	"go-autoapply/internal/config"
)

func main() {
	fmt.Println("🔧 Testing config loading...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Printf("✅ Config loaded successfully!\n")
	fmt.Printf("   Site: %s (dry run: %t, max steps: %d)\n", cfg.Site, cfg.DryRun, cfg.MaxSteps)
	fmt.Printf("   Oracle: %s %s at %s\n", cfg.Oracle.Provider, cfg.Oracle.Model, cfg.Oracle.BaseURL)
	fmt.Printf("   Store: %s, records: %s\n", cfg.Store.Backend, cfg.Records.Backend)
	fmt.Printf("   Telegram enabled: %t\n", cfg.Telegram.Token != "")
	fmt.Printf("   Schedule: %q\n", cfg.Schedule)
	fmt.Printf("   Cookies Path: %s\n", cfg.Browser.CookiesPath)
}
