// Package site holds the per-site vocabulary of the form engine. It is the
// only place selector lists live; every other package asks an Adapter.
package site

import (
	"fmt"
	"net/url"
	"strings"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
)

// Rule matches elements by CSS selector and, optionally, by visible text,
// accessible label or value containing one of Texts (accent and case folded).
type Rule struct {
	Selector string
	Texts    []string
}

// ListingSelectors drive the listing collaborator.
type ListingSelectors struct {
	Card     string
	Link     string
	Title    string
	Company  string
	Location string
	// IDAttr is the card attribute holding the site's job id, if any.
	IDAttr   string
	NextPage string
	LastPage string
	// PageParam is rewritten on pagination fallback. With PageSize set it
	// holds a result offset instead of a page number.
	PageParam string
	PageSize  int
}

type Adapter struct {
	Site    models.Site
	Origins []string
	// SearchURL is the result page used when none is configured.
	SearchURL string

	ApplyNow            []Rule
	ContinueApplication []Rule
	NextStep            []Rule
	FinalSubmit         []Rule
	// AlreadyApplied and Unavailable settle a job before the flow starts.
	AlreadyApplied []Rule
	Unavailable    []Rule

	QuestionContainers []string
	ValidationFeedback []string
	FormIndicators     []string

	// SkipList holds question fragments the site pre-fills from the account.
	SkipList []string

	ApplicationPath    string
	ConfirmationPath   string
	ApplicationIDParam string

	Listing ListingSelectors
}

var registry = map[string]*Adapter{
	string(models.SiteStepStone): StepStone(),
	string(models.SiteLinkedIn):  LinkedIn(),
}

// Lookup returns the adapter registered under name.
func Lookup(name string) (*Adapter, error) {
	a, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown site %q", name)
	}
	return a, nil
}

// Find returns the first visible element matching the rules, in rule order.
func (a *Adapter) Find(root interface{ QueryAll(string) []dom.Element }, rules []Rule) dom.Element {
	for _, r := range rules {
		for _, el := range root.QueryAll(r.Selector) {
			if !el.Visible() || el.HasAttr("disabled") {
				continue
			}
			if r.matchesText(el) {
				return el
			}
		}
	}
	return nil
}

func (r Rule) matchesText(el dom.Element) bool {
	if len(r.Texts) == 0 {
		return true
	}
	label := el.Text() + " " + el.Attr("aria-label") + " " + el.Attr("value")
	return dom.ContainsFold(label, r.Texts...)
}

// HasForm reports whether any form indicator is present.
func (a *Adapter) HasForm(page dom.Page) bool {
	for _, sel := range a.FormIndicators {
		for _, el := range page.QueryAll(sel) {
			if el.Visible() {
				return true
			}
		}
	}
	return false
}

// ShouldSkip reports whether the site pre-populates this question.
func (a *Adapter) ShouldSkip(question string) bool {
	return dom.ContainsFold(question, a.SkipList...)
}

// IsOnSite reports whether rawURL belongs to one of the adapter's origins.
// Unparseable and blank URLs count as on-site; a page mid-navigation reports
// about:blank.
func (a *Adapter) IsOnSite(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, o := range a.Origins {
		if host == o || strings.HasSuffix(host, "."+o) {
			return true
		}
	}
	return false
}

// InApplication reports whether the URL path is inside the application wizard.
func (a *Adapter) InApplication(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || a.ApplicationPath == "" {
		return false
	}
	return strings.Contains(u.Path, a.ApplicationPath)
}

// MatchConfirmation extracts the application id from a confirmation URL.
func (a *Adapter) MatchConfirmation(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.Contains(u.Path, a.ConfirmationPath) {
		return "", false
	}
	id := u.Query().Get(a.ApplicationIDParam)
	if id == "" {
		return "", false
	}
	return id, true
}
