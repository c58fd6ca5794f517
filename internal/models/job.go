package models

import (
	"net/url"
	"path"
	"strings"
)

// Site identifies one of the supported job boards.
type Site string

const (
	SiteLinkedIn  Site = "linkedin"
	SiteStepStone Site = "stepstone"
)

// JobDescriptor is one posting yielded by the listing. Immutable once created.
type JobDescriptor struct {
	Site     Site   `json:"site"`
	JobID    string `json:"job_id,omitempty"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location,omitempty"`
	Remote   bool   `json:"remote,omitempty"`
	PostedAt string `json:"posted_at,omitempty"`
	WorkType string `json:"work_type,omitempty"`
}

// Key is the deduplication identity of a posting.
func (j JobDescriptor) Key() string {
	id := j.JobID
	if id == "" {
		id = IDFromURL(j.URL)
	}
	return string(j.Site) + ":" + id
}

// CanonicalURL strips query string and fragment. LinkedIn and StepStone both
// append tracking parameters (refId, trackingId, ...) that make the same
// posting look different.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// IDFromURL derives a stable id from a posting URL: the last path segment of
// the canonical URL, or the whole canonical URL when the path is empty.
func IDFromURL(raw string) string {
	canon := CanonicalURL(raw)
	u, err := url.Parse(canon)
	if err != nil || u.Path == "" || u.Path == "/" {
		return canon
	}
	return path.Base(u.Path)
}

// JobOutcome is the per-job result surfaced to the caller of a run.
type JobOutcome string

const (
	OutcomeSuccess      JobOutcome = "success"
	OutcomeSkipped      JobOutcome = "skipped"
	OutcomeError        JobOutcome = "error"
	OutcomeStopped      JobOutcome = "stopped"
	OutcomeExternalForm JobOutcome = "external-form"
	OutcomeTimeout      JobOutcome = "timeout"
)

type JobResult struct {
	Job           JobDescriptor `json:"job"`
	Outcome       JobOutcome    `json:"outcome"`
	ApplicationID string        `json:"application_id,omitempty"`
	WasRetry      bool          `json:"was_retry,omitempty"`
	Reason        string        `json:"reason,omitempty"`
}
