package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/tabs"
)

// Page adapts a Playwright page. Reads swallow driver errors and return zero
// values, matching what a detached node would report.
type Page struct {
	page  playwright.Page
	shots *Screenshotter
	// Humanize scrolls and moves the pointer after each Goto.
	Humanize bool
}

func newPage(p playwright.Page, shots *Screenshotter) *Page {
	return &Page{page: p, shots: shots}
}

// Raw exposes the driver page.
func (p *Page) Raw() playwright.Page { return p.page }

func (p *Page) URL() string { return p.page.URL() }

func (p *Page) QueryAll(selector string) []dom.Element {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	return wrap(handles)
}

func (p *Page) ByID(id string) dom.Element {
	h, err := p.page.QuerySelector("[id=" + strconv.Quote(id) + "]")
	if err != nil || h == nil {
		return nil
	}
	return &Element{h: h}
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutFrom(ctx),
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	if p.Humanize {
		if err := HumanScroll(ctx, p.page); err != nil {
			return err
		}
		return MouseJiggle(ctx, p.page)
	}
	return nil
}

func (p *Page) Activate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.BringToFront()
}

func (p *Page) WaitForLoad(ctx context.Context) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: timeoutFrom(ctx),
	})
}

func (p *Page) Close(context.Context) error {
	if p.page.IsClosed() {
		return nil
	}
	return p.page.Close()
}

// Capture saves a debug screenshot of the page.
func (p *Page) Capture(name, message string) error {
	return p.shots.Capture(p.page, name, message)
}

// timeoutFrom converts the ctx deadline to driver milliseconds; 0 lets the
// driver wait without limit.
func timeoutFrom(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return playwright.Float(0)
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}

// Opener opens each job in a new page of the shared browser context.
type Opener struct {
	ctx    playwright.BrowserContext
	shots  *Screenshotter
	logger arbor.ILogger
}

func (o *Opener) Open(ctx context.Context, url string) (tabs.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := o.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	if _, err := raw.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateCommit}); err != nil {
		raw.Close()
		return nil, fmt.Errorf("goto %s: %w", url, err)
	}
	o.logger.Debug().Str("url", url).Msg("job page opened")
	return newPage(raw, o.shots), nil
}

var (
	_ tabs.Tab    = (*Page)(nil)
	_ tabs.Opener = (*Opener)(nil)
)
