package models

import (
	"time"
)

type ApplicationStatus string

const (
	StatusApplied ApplicationStatus = "APPLIED"
	StatusFailed  ApplicationStatus = "FAILED"
)

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Platform      string    `json:"platform"`
	PlatformJobID string    `json:"platform_job_id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Location      string    `json:"location,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Application struct {
	ID                    string            `json:"id"`
	UserID                string            `json:"user_id"`
	JobID                 string            `json:"job_id"`
	Status                ApplicationStatus `json:"status"`
	ExternalApplicationID string            `json:"external_application_id,omitempty"`
	ConfirmationURL       string            `json:"confirmation_url,omitempty"`
	AppliedAt             time.Time         `json:"applied_at"`
}

type QuestionAnswer struct {
	ApplicationID    string  `json:"application_id"`
	Question         string  `json:"question"`
	Answer           string  `json:"answer"`
	Category         string  `json:"category"`
	Source           string  `json:"source"`
	Confidence       float64 `json:"confidence"`
	WasCorrected     bool    `json:"was_corrected"`
	OriginalAnswer   *string `json:"original_answer,omitempty"`
	CorrectionReason *string `json:"correction_reason,omitempty"`
}

// NewQuestionAnswer converts a collected entry into its stored row.
func NewQuestionAnswer(applicationID string, e QAEntry) QuestionAnswer {
	qa := QuestionAnswer{
		ApplicationID: applicationID,
		Question:      e.Question,
		Answer:        e.Answer,
		Category:      string(e.Category),
		Source:        string(e.Source),
		Confidence:    e.Confidence,
		WasCorrected:  e.WasCorrected,
	}
	if e.WasCorrected {
		orig, reason := e.OriginalAnswer, e.CorrectionReason
		qa.OriginalAnswer = &orig
		qa.CorrectionReason = &reason
	}
	return qa
}
