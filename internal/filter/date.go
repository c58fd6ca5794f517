package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-autoapply/internal/dom"
)

var (
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	germanDate    = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	relativeRegex = regexp.MustCompile(`(\d+|an?|einem|einer)\s*\+?\s*(minute|minuten|min|stunde|stunden|hour|hours|tag|tagen|day|days|woche|wochen|week|weeks|monat|monaten|month|months)`)
)

// PostedAge converts a posting date ("2026-10-01", "vor 3 Tagen",
// "2 weeks ago", "Heute") into an age at now. ok is false when the text
// carries no usable date.
func PostedAge(s string, now time.Time) (time.Duration, bool) {
	s = dom.Fold(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if isoDateRegex.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return now.Sub(t), true
		}
	}
	if m := germanDate.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return now.Sub(time.Date(y, time.Month(mo), d, 0, 0, 0, 0, now.Location())), true
	}

	switch {
	case strings.Contains(s, "heute"), strings.Contains(s, "today"), strings.Contains(s, "just now"), strings.Contains(s, "gerade"):
		return 0, true
	case strings.Contains(s, "gestern"), strings.Contains(s, "yesterday"):
		return 24 * time.Hour, true
	}

	m := relativeRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		n = 1
	}
	var unit time.Duration
	switch {
	case strings.HasPrefix(m[2], "min"):
		unit = time.Minute
	case strings.HasPrefix(m[2], "stunde"), strings.HasPrefix(m[2], "hour"):
		unit = time.Hour
	case strings.HasPrefix(m[2], "tag"), strings.HasPrefix(m[2], "day"):
		unit = 24 * time.Hour
	case strings.HasPrefix(m[2], "woche"), strings.HasPrefix(m[2], "week"):
		unit = 7 * 24 * time.Hour
	default:
		unit = 30 * 24 * time.Hour
	}
	return time.Duration(n) * unit, true
}

// IsRecentJob reports whether the posting is at most maxAge old. Unknown
// dates count as recent, and so do dates up to two days in the future
// (time zones).
func IsRecentJob(posted string, now time.Time, maxAge time.Duration) bool {
	age, ok := PostedAge(posted, now)
	if !ok {
		return true
	}
	return age <= maxAge && age >= -2*24*time.Hour
}
