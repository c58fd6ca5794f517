package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"
)

// Screenshotter saves full-page debug screenshots. A zero dir disables it.
type Screenshotter struct {
	dir    string
	logger arbor.ILogger
}

func NewScreenshotter(dir string, logger arbor.ILogger) *Screenshotter {
	return &Screenshotter{dir: dir, logger: logger}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (s *Screenshotter) Capture(page playwright.Page, name, message string) error {
	if s == nil || s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	file := fmt.Sprintf("%s_%s.png", unsafeName.ReplaceAllString(name, "_"), time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.dir, file)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	s.logger.Info().Str("path", path).Str("reason", message).Msg("📸 screenshot saved")
	return nil
}
