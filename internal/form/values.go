package form

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
)

const isoDate = "2006-01-02"

var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"2006/01/02",
	"2 January 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/2006",
	"January 2006",
	time.RFC3339,
}

var slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// AddMonths moves now forward n calendar months, clamping the day to the
// end of the target month.
func AddMonths(now time.Time, n int) time.Time {
	y, m, d := now.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, now.Location())
}

// NormalizeDate converts s into YYYY-MM-DD. Unparseable input becomes now
// plus fallbackMonths and ok is false. Applying it twice changes nothing.
func NormalizeDate(s string, now time.Time, fallbackMonths int) (string, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoDate, s); err == nil {
		return t.Format(isoDate), true
	}
	if m := slashDate.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		day, month := a, b
		if a <= 12 && b > 12 {
			day, month = b, a
		}
		if t, ok := validDate(y, month, day); ok {
			return t.Format(isoDate), true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate), true
		}
	}
	return AddMonths(now, fallbackMonths).Format(isoDate), false
}

func validDate(y, m, d int) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t, t.Year() == y && int(t.Month()) == m && t.Day() == d
}

var numberToken = regexp.MustCompile(`-?\d[\d.,]*`)
var thousandsDot = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
var thousandsComma = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)

// ParseNumber extracts the first number from s, dropping units and
// reading comma decimals. "17 hours" yields "17", "2,5 Jahre" yields "2.5".
func ParseNumber(s string) (string, bool) {
	tok := strings.TrimRight(numberToken.FindString(s), ".,")
	if tok == "" {
		return "", false
	}
	dot, comma := strings.LastIndex(tok, "."), strings.LastIndex(tok, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case thousandsDot.MatchString(tok):
		tok = strings.ReplaceAll(tok, ".", "")
	case thousandsComma.MatchString(tok):
		tok = strings.ReplaceAll(tok, ",", "")
	case comma >= 0:
		tok = strings.Replace(tok, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// MatchOption picks the option best matching answer: exact, then
// substring either way, then fuzzy word overlap. It returns -1 when
// nothing overlaps.
func MatchOption(answer string, options []string) int {
	a := dom.Fold(dom.CollapseSpace(answer))
	if a == "" {
		return -1
	}
	for i, o := range options {
		if dom.Fold(dom.CollapseSpace(o)) == a {
			return i
		}
	}
	for i, o := range options {
		fo := dom.Fold(dom.CollapseSpace(o))
		if fo == "" {
			continue
		}
		if strings.Contains(fo, a) || strings.Contains(a, fo) {
			return i
		}
	}

	best, bestScore := -1, 0.0
	aw := words(a)
	for i, o := range options {
		if s := overlap(aw, words(dom.Fold(o))); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// MatchSelectOption is MatchOption for a described option set: an exact
// text or value match wins before any looser comparison.
func MatchSelectOption(answer string, options []models.Option) int {
	a := dom.Fold(dom.CollapseSpace(answer))
	if a == "" {
		return -1
	}
	for i, o := range options {
		if dom.Fold(dom.CollapseSpace(o.Text)) == a {
			return i
		}
	}
	for i, o := range options {
		if o.Value != "" && dom.Fold(strings.TrimSpace(o.Value)) == a {
			return i
		}
	}
	texts := make([]string, len(options))
	for i, o := range options {
		texts[i] = o.Text
	}
	return MatchOption(answer, texts)
}

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func words(s string) []string {
	var out []string
	for _, w := range wordSplit.Split(s, -1) {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// overlap is a Dice score where words also match by prefix or as an
// abbreviation ("sr" for "senior").
func overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range a {
		best := 0.0
		for _, y := range b {
			if s := wordScore(x, y); s > best {
				best = s
			}
		}
		total += best
	}
	return 2 * total / float64(len(a)+len(b))
}

func wordScore(x, y string) float64 {
	switch {
	case x == y:
		return 1
	case len(x) >= 3 && strings.HasPrefix(y, x), len(y) >= 3 && strings.HasPrefix(x, y):
		return 0.8
	case abbreviates(x, y) || abbreviates(y, x):
		return 0.6
	}
	return 0
}

// abbreviates reports whether short shares long's first letter and its
// letters appear in long in order.
func abbreviates(short, long string) bool {
	if len(short) < 2 || len(short) >= len(long) || short[0] != long[0] {
		return false
	}
	i := 0
	for j := 0; j < len(long) && i < len(short); j++ {
		if long[j] == short[i] {
			i++
		}
	}
	return i == len(short)
}

// SplitChoices splits a checkbox-group answer on commas and semicolons.
func SplitChoices(answer string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ChoiceSelected reports whether an option label matches any answer
// fragment by substring in either direction.
func ChoiceSelected(label string, fragments []string) bool {
	l := dom.Fold(dom.CollapseSpace(label))
	if l == "" {
		return false
	}
	for _, f := range fragments {
		f = dom.Fold(f)
		if strings.Contains(l, f) || strings.Contains(f, l) {
			return true
		}
	}
	return false
}

var negatives = map[string]bool{"no": true, "nein": true, "false": true, "0": true, "off": true}

// IsNegative reports whether answer is an explicit no.
func IsNegative(answer string) bool {
	return negatives[dom.Fold(strings.Trim(strings.TrimSpace(answer), ".!"))]
}
