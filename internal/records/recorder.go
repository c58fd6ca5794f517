// Package records stores successful applications and the answers given on
// them in the remote application database.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
)

var (
	ErrDuplicate = errors.New("records: duplicate")
	ErrNotFound  = errors.New("records: not found")
)

// Store is what the flow controller flushes a completed job into.
type Store interface {
	RecordApplication(ctx context.Context, job models.JobDescriptor, status models.FormStatus, entries []models.QAEntry) (string, error)
}

// Backend is the row-level API of one database flavor.
type Backend interface {
	FindOrCreateCompany(ctx context.Context, name string) (models.Company, error)
	FindOrCreateJob(ctx context.Context, job models.Job) (models.Job, error)
	// CreateApplication returns ErrDuplicate when the user already applied.
	CreateApplication(ctx context.Context, app models.Application) (models.Application, error)
	FindApplication(ctx context.Context, userID, jobID string) (models.Application, error)
	AddAnswers(ctx context.Context, answers []models.QuestionAnswer) error
}

// Recorder implements Store over a Backend.
type Recorder struct {
	backend Backend
	userID  string
	logger  arbor.ILogger
	now     func() time.Time
}

func NewRecorder(backend Backend, userID string, logger arbor.ILogger) *Recorder {
	return &Recorder{backend: backend, userID: userID, logger: logger, now: time.Now}
}

// RecordApplication finds or creates the company and job, creates the
// application (falling back to the existing one on a duplicate) and posts
// the answers. It returns the stored application id.
func (r *Recorder) RecordApplication(ctx context.Context, job models.JobDescriptor, status models.FormStatus, entries []models.QAEntry) (string, error) {
	companyName := job.Company
	if companyName == "" {
		companyName = "Unknown"
	}
	company, err := r.backend.FindOrCreateCompany(ctx, companyName)
	if err != nil {
		return "", fmt.Errorf("company %q: %w", companyName, err)
	}

	platformID := job.JobID
	if platformID == "" {
		platformID = models.IDFromURL(job.URL)
	}
	storedJob, err := r.backend.FindOrCreateJob(ctx, models.Job{
		CompanyID:     company.ID,
		Platform:      string(job.Site),
		PlatformJobID: platformID,
		Title:         job.Title,
		URL:           models.CanonicalURL(job.URL),
		Location:      job.Location,
	})
	if err != nil {
		return "", fmt.Errorf("job %s: %w", job.Key(), err)
	}

	app, err := r.backend.CreateApplication(ctx, models.Application{
		UserID:                r.userID,
		JobID:                 storedJob.ID,
		Status:                models.StatusApplied,
		ExternalApplicationID: status.ApplicationID,
		ConfirmationURL:       status.ConfirmationURL,
		AppliedAt:             r.now(),
	})
	if errors.Is(err, ErrDuplicate) {
		r.logger.Info().Str("job", storedJob.ID).Msg("application already recorded, reusing it")
		app, err = r.backend.FindApplication(ctx, r.userID, storedJob.ID)
	}
	if err != nil {
		return "", fmt.Errorf("application for job %s: %w", storedJob.ID, err)
	}

	if len(entries) > 0 {
		answers := make([]models.QuestionAnswer, 0, len(entries))
		for _, e := range entries {
			if e.Skipped {
				continue
			}
			answers = append(answers, models.NewQuestionAnswer(app.ID, e))
		}
		if err := r.backend.AddAnswers(ctx, answers); err != nil {
			return app.ID, fmt.Errorf("answers for application %s: %w", app.ID, err)
		}
	}

	r.logger.Info().Str("application", app.ID).Int("answers", len(entries)).Msg("💾 application recorded")
	return app.ID, nil
}
