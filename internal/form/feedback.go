package form

import (
	"regexp"
	"strings"

	"go-autoapply/internal/dom"
)

type ConstraintType string

const (
	ConstraintNone     ConstraintType = ""
	ConstraintMin      ConstraintType = "min"
	ConstraintMax      ConstraintType = "max"
	ConstraintRequired ConstraintType = "required"
	ConstraintFormat   ConstraintType = "format"
)

// Result is what the writer learned from the page after writing a field.
type Result struct {
	OK              bool           `json:"ok"`
	Error           string         `json:"error,omitempty"`
	ConstraintType  ConstraintType `json:"constraintType,omitempty"`
	ConstraintValue string         `json:"constraintValue,omitempty"`
}

var (
	minPattern = regexp.MustCompile(`(?i)(?:mindestens|at least|minimum(?: of)?|min\.?)\s*(-?\d+(?:[.,]\d+)?)`)
	maxPattern = regexp.MustCompile(`(?i)(?:hochstens|at most|maximum(?: of)?|max\.?)\s*(-?\d+(?:[.,]\d+)?)`)
)

var requiredPhrases = []string{"beantworte", "please answer", "required", "pflichtfeld", "erforderlich"}
var formatPhrases = []string{"ungultig", "invalid", "gultige", "valid "}

// ParseFeedback classifies a site validation message.
func ParseFeedback(message string) (ConstraintType, string) {
	msg := dom.Fold(dom.CollapseSpace(message))
	if msg == "" {
		return ConstraintNone, ""
	}
	if m := minPattern.FindStringSubmatch(msg); m != nil {
		return ConstraintMin, strings.Replace(m[1], ",", ".", 1)
	}
	if m := maxPattern.FindStringSubmatch(msg); m != nil {
		return ConstraintMax, strings.Replace(m[1], ",", ".", 1)
	}
	for _, p := range requiredPhrases {
		if strings.Contains(msg, p) {
			return ConstraintRequired, ""
		}
	}
	for _, p := range formatPhrases {
		if strings.Contains(msg, p) {
			return ConstraintFormat, ""
		}
	}
	return ConstraintNone, ""
}

// ResultFromFeedback builds the result for a visible feedback element, or an
// OK result when there is none.
func ResultFromFeedback(feedback dom.Element) Result {
	if feedback == nil || !feedback.Visible() {
		return Result{OK: true}
	}
	text := feedback.Text()
	if text == "" {
		return Result{OK: true}
	}
	ct, cv := ParseFeedback(text)
	return Result{OK: false, Error: text, ConstraintType: ct, ConstraintValue: cv}
}
