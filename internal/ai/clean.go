package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	mdLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphasis = regexp.MustCompile("(\\*\\*|__|\\*|`)([^*`]+)(\\*\\*|__|\\*|`)")
	prefixes   = regexp.MustCompile(`(?i)^(here is[^:]*:|here's[^:]*:|answer\s*:|antwort\s*:|link\s*:|the answer is\s*:?)\s*`)
)

// Clean strips markdown wrappers, explanatory prefixes and trailing periods
// from a model answer.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdEmphasis.ReplaceAllString(s, "$2")
	for {
		next := strings.TrimSpace(prefixes.ReplaceAllString(s, ""))
		if next == s {
			break
		}
		s = next
	}
	s = strings.Trim(s, `"'`)
	s = strings.TrimRight(s, ". ")
	return strings.TrimSpace(s)
}

// ExtractJSON returns the first balanced JSON object in s.
func ExtractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		depth, inString, escaped := 0, false, false
		for i := start; i < len(s); i++ {
			ch := s[i]
			switch {
			case escaped:
				escaped = false
			case inString && ch == '\\':
				escaped = true
			case ch == '"':
				inString = !inString
			case inString:
			case ch == '{':
				depth++
			case ch == '}':
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(s)
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

type reply struct {
	Answer     json.RawMessage `json:"answer"`
	Confidence *float64        `json:"confidence"`
}

// parseReply reads the {"answer","confidence"} object the prompt asks for,
// falling back to the raw text.
func parseReply(raw string) (string, float64) {
	obj, ok := ExtractJSON(raw)
	if !ok {
		return raw, defaultConfidence
	}
	var r reply
	if err := json.Unmarshal([]byte(obj), &r); err != nil || len(r.Answer) == 0 {
		return raw, defaultConfidence
	}

	answer := ""
	var str string
	var list []string
	var num float64
	switch {
	case json.Unmarshal(r.Answer, &str) == nil:
		answer = str
	case json.Unmarshal(r.Answer, &list) == nil:
		answer = strings.Join(list, ", ")
	case json.Unmarshal(r.Answer, &num) == nil:
		answer = strconv.FormatFloat(num, 'f', -1, 64)
	default:
		answer = string(r.Answer)
	}

	confidence := defaultConfidence
	if r.Confidence != nil && *r.Confidence >= 0 && *r.Confidence <= 1 {
		confidence = *r.Confidence
	}
	return answer, confidence
}
