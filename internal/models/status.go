package models

import "time"

type FormState string

const (
	FormRunning      FormState = "running"
	FormStopped      FormState = "stopped"
	FormCompleted    FormState = "completed"
	FormExternalForm FormState = "external-form"
	FormError        FormState = "error"
)

// FormStatus is the cross-context record written by the flow controller and
// polled by the run controller.
type FormStatus struct {
	// JobKey names the job the status belongs to.
	JobKey          string    `json:"jobKey,omitempty"`
	State           FormState `json:"state"`
	ApplicationID   string    `json:"applicationId,omitempty"`
	ConfirmationURL string    `json:"confirmationURL,omitempty"`
	WasRetry        bool      `json:"wasRetry,omitempty"`
	DryRun          bool      `json:"dryRun,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Terminal reports whether no further writes are expected for this job.
func (s FormStatus) Terminal() bool {
	switch s.State {
	case FormStopped, FormCompleted, FormExternalForm, FormError:
		return true
	}
	return false
}

// RunState lets a run resume after a pagination reload.
type RunState struct {
	CurrentPage int       `json:"currentPage"`
	Timestamp   time.Time `json:"timestamp"`
}
