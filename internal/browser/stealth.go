package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// stealthScript hides the automation markers most bot checks read first.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['de-DE', 'de', 'en-US', 'en'] });
window.chrome = window.chrome || { runtime: {} };
`

// RandomDelay waits between min and max milliseconds, or until ctx ends.
func RandomDelay(ctx context.Context, min, max int) error {
	d := min
	if max > min {
		d = rand.Intn(max-min+1) + min
	}
	t := time.NewTimer(time.Duration(d) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HumanScroll scrolls down in steps and back up a little, which also
// triggers lazily loaded result cards.
func HumanScroll(ctx context.Context, page playwright.Page) error {
	for i := 0; i < 3; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 200, 600); err != nil {
			return err
		}
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// MouseJiggle moves the pointer to a few random points of the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	size := page.ViewportSize()
	if size == nil || size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	for i := 0; i < 3; i++ {
		x, y := rand.Intn(size.Width), rand.Intn(size.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100, 300); err != nil {
			return err
		}
	}
	return nil
}
