// Package htmldom is an in-memory dom.Page backed by goquery. Control state
// (value, checked, selected) lives in the node attributes, so what a test
// writes is what the page reports back. Hooks script navigation and
// validation feedback.
//
// A Page is not safe for concurrent DOM access; only URL and the lifecycle
// flags are guarded.
package htmldom

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go-autoapply/internal/dom"

	"github.com/PuerkitoBio/goquery"
)

type Page struct {
	doc *goquery.Document

	mu     sync.Mutex
	url    string
	active bool
	closed bool

	// OnClick runs after the default click behavior of el.
	OnClick func(p *Page, el *Element) error
	// OnChange runs after any write to a control.
	OnChange func(p *Page, el *Element)
}

// New parses html as the document at url.
func New(url, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Page{doc: doc, url: url}, nil
}

// MustNew is New for fixtures known to parse.
func MustNew(url, html string) *Page {
	p, err := New(url, html)
	if err != nil {
		panic(err)
	}
	return p
}

// Navigate replaces the document and the URL, the way a full page load does.
func (p *Page) Navigate(url, html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	p.doc = doc
	p.SetURL(url)
	return nil
}

func (p *Page) SetURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) QueryAll(selector string) []dom.Element {
	return wrapAll(p, p.doc.Find(selector))
}

func (p *Page) ByID(id string) dom.Element {
	if id == "" {
		return nil
	}
	// ids may contain characters that are not valid in a CSS selector
	var found *Element
	p.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = &Element{page: p, sel: s}
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return found
}

// HTML renders the current document, useful in failing test output.
func (p *Page) HTML() string {
	h, _ := p.doc.Html()
	return h
}

func (p *Page) Activate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("page closed")
	}
	p.active = true
	return nil
}

func (p *Page) Deactivate() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

func (p *Page) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Page) WaitForLoad(ctx context.Context) error {
	return ctx.Err()
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.active = false
	p.mu.Unlock()
	return nil
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) changed(el *Element) {
	if p.OnChange != nil {
		p.OnChange(p, el)
	}
}

func wrapAll(p *Page, s *goquery.Selection) []dom.Element {
	out := make([]dom.Element, 0, s.Length())
	s.Each(func(_ int, one *goquery.Selection) {
		out = append(out, &Element{page: p, sel: one})
	})
	return out
}
