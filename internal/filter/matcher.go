// Package filter decides from the listing card alone whether a posting is
// worth opening.
package filter

import (
	"regexp"
	"strings"
	"time"

	"go-autoapply/internal/config"
	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
)

// Filter matches title, company and location against keyword lists and the
// posting date against a maximum age. The zero Filter allows everything.
type Filter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
	maxAge  time.Duration
	now     func() time.Time
}

func New(cfg config.FilterConfig) *Filter {
	f := &Filter{include: wordsRegex(cfg.Include), exclude: wordsRegex(cfg.Exclude), now: time.Now}
	if cfg.MaxAgeDays > 0 {
		f.maxAge = time.Duration(cfg.MaxAgeDays) * 24 * time.Hour
	}
	return f
}

// wordsRegex builds one case-insensitive whole-word alternation, or nil.
func wordsRegex(words []string) *regexp.Regexp {
	var parts []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(dom.Fold(w)), " ", `\s+`))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(` + strings.Join(parts, "|") + `)($|[^\p{L}\p{N}])`)
}

// Allow reports whether the job should be opened and, if not, why.
func (f *Filter) Allow(job models.JobDescriptor) (bool, string) {
	if f == nil {
		return true, ""
	}
	text := dom.Fold(job.Title + " " + job.Company + " " + job.Location)

	if f.include != nil && !f.include.MatchString(text) {
		return false, "no include keyword"
	}
	if f.exclude != nil {
		if m := f.exclude.FindStringSubmatch(text); m != nil {
			return false, "excluded keyword: " + m[2]
		}
	}
	if f.maxAge > 0 && !IsRecentJob(job.PostedAt, f.now(), f.maxAge) {
		return false, "posted too long ago: " + job.PostedAt
	}
	return true, ""
}
