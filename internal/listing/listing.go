// Package listing reads job descriptors from a job board's result pages and
// moves between those pages.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
	"go-autoapply/internal/site"
)

// Source is the listing collaborator of a run.
type Source interface {
	// Jobs reads the descriptors shown on the current page.
	Jobs(ctx context.Context) ([]models.JobDescriptor, error)
	CurrentPage() int
	TotalPages(ctx context.Context) (int, error)
	// GoToPage shows page n. reloaded reports a full document load through
	// URL rewrite.
	GoToPage(ctx context.Context, n int) (reloaded bool, err error)
}

// Navigator is a page that can load another URL.
type Navigator interface {
	dom.Page
	Goto(ctx context.Context, url string) error
}

// Board is a Source over the adapter's listing selectors.
type Board struct {
	adapter *site.Adapter
	page    Navigator
	logger  arbor.ILogger
}

func NewBoard(adapter *site.Adapter, page Navigator, logger arbor.ILogger) *Board {
	return &Board{adapter: adapter, page: page, logger: logger}
}

func (b *Board) Jobs(ctx context.Context) ([]models.JobDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := b.adapter.Listing
	base, _ := url.Parse(b.page.URL())

	var jobs []models.JobDescriptor
	seen := map[string]bool{}
	for _, card := range b.page.QueryAll(sel.Card) {
		link := dom.First(card, sel.Link)
		if link == nil {
			continue
		}
		href := resolve(base, link.Attr("href"))
		if href == "" {
			continue
		}
		job := models.JobDescriptor{
			Site:     b.adapter.Site,
			URL:      models.CanonicalURL(href),
			Title:    textOf(card, sel.Title),
			Company:  textOf(card, sel.Company),
			Location: textOf(card, sel.Location),
		}
		if sel.IDAttr != "" {
			job.JobID = card.Attr(sel.IDAttr)
		}
		if seen[job.Key()] {
			continue
		}
		seen[job.Key()] = true
		jobs = append(jobs, job)
	}
	b.logger.Debug().Int("page", b.CurrentPage()).Int("jobs", len(jobs)).Msg("listing read")
	return jobs, nil
}

func (b *Board) CurrentPage() int {
	u, err := url.Parse(b.page.URL())
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(u.Query().Get(b.adapter.Listing.PageParam))
	if err != nil {
		return 1
	}
	if size := b.adapter.Listing.PageSize; size > 0 {
		return n/size + 1
	}
	if n < 1 {
		return 1
	}
	return n
}

var digits = regexp.MustCompile(`\d+`)

// TotalPages reads the last pagination entry; a listing without pagination
// has one page.
func (b *Board) TotalPages(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	last := dom.First(b.page, b.adapter.Listing.LastPage)
	if last == nil {
		return 1, nil
	}
	m := digits.FindAllString(last.Text(), -1)
	if len(m) == 0 {
		return 1, nil
	}
	n, _ := strconv.Atoi(m[len(m)-1])
	if n < 1 {
		n = 1
	}
	return n, nil
}

// GoToPage clicks the next-page control when n is the following page and
// rewrites the URL otherwise, or when the click does not move.
func (b *Board) GoToPage(ctx context.Context, n int) (bool, error) {
	current := b.CurrentPage()
	if n == current {
		return false, nil
	}
	if n == current+1 {
		if next := dom.First(b.page, b.adapter.Listing.NextPage); next != nil && next.Visible() {
			if err := next.Click(ctx); err != nil {
				return false, fmt.Errorf("click next page: %w", err)
			}
			if b.CurrentPage() == n {
				return false, nil
			}
			b.logger.Debug().Int("page", n).Msg("next-page click did not move, rewriting URL")
		}
	}

	target, err := b.pageURL(n)
	if err != nil {
		return false, err
	}
	if err := b.page.Goto(ctx, target); err != nil {
		return true, fmt.Errorf("load page %d: %w", n, err)
	}
	return true, nil
}

func (b *Board) pageURL(n int) (string, error) {
	u, err := url.Parse(b.page.URL())
	if err != nil {
		return "", fmt.Errorf("listing url: %w", err)
	}
	sel := b.adapter.Listing
	value := n
	if sel.PageSize > 0 {
		value = (n - 1) * sel.PageSize
	}
	q := u.Query()
	q.Set(sel.PageParam, strconv.Itoa(value))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func textOf(root dom.Element, selector string) string {
	if selector == "" {
		return ""
	}
	if el := dom.First(root, selector); el != nil {
		return el.Text()
	}
	return ""
}
