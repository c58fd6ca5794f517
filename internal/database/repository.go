package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go-autoapply/internal/models"
	"go-autoapply/internal/records"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Repository is the postgres backend of the application database.
type Repository struct {
	db *pgxpool.Pool
}

var _ records.Backend = (*Repository)(nil)

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Transaction-mode poolers do not keep prepared statements across queries.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

// Migrate creates the tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Version reports the server version, which doubles as a connectivity check.
func (r *Repository) Version(ctx context.Context) (string, error) {
	var v string
	if err := r.db.QueryRow(ctx, "SELECT version()").Scan(&v); err != nil {
		return "", fmt.Errorf("version query failed: %w", err)
	}
	return v, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// ---------------- COMPANY OPERATIONS ----------------

func (r *Repository) FindOrCreateCompany(ctx context.Context, name string) (models.Company, error) {
	var c models.Company
	// the no-op update makes RETURNING yield the existing row
	query := `
		INSERT INTO companies (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`
	err := r.db.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to find or create company: %w", err)
	}
	return c, nil
}

// ---------------- JOB OPERATIONS ----------------

func (r *Repository) FindOrCreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	query := `
		INSERT INTO jobs (company_id, platform, platform_job_id, title, url, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (platform, platform_job_id)
		DO UPDATE SET title = EXCLUDED.title, url = EXCLUDED.url
		RETURNING id, company_id, platform, platform_job_id, title, url, location, created_at`
	var j models.Job
	err := r.db.QueryRow(ctx, query, job.CompanyID, job.Platform, job.PlatformJobID, job.Title, job.URL, job.Location).
		Scan(&j.ID, &j.CompanyID, &j.Platform, &j.PlatformJobID, &j.Title, &j.URL, &j.Location, &j.CreatedAt)
	if err != nil {
		return models.Job{}, fmt.Errorf("failed to find or create job: %w", err)
	}
	return j, nil
}

// ---------------- APPLICATION OPERATIONS ----------------

func (r *Repository) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	query := `
		INSERT INTO applications (user_id, job_id, status, external_application_id, confirmation_url, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, job_id, status, external_application_id, confirmation_url, applied_at`
	var out models.Application
	err := r.db.QueryRow(ctx, query, app.UserID, app.JobID, app.Status, app.ExternalApplicationID, app.ConfirmationURL, app.AppliedAt).
		Scan(&out.ID, &out.UserID, &out.JobID, &out.Status, &out.ExternalApplicationID, &out.ConfirmationURL, &out.AppliedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Application{}, records.ErrDuplicate
		}
		return models.Application{}, fmt.Errorf("failed to create application: %w", err)
	}
	return out, nil
}

func (r *Repository) FindApplication(ctx context.Context, userID, jobID string) (models.Application, error) {
	query := `
		SELECT id, user_id, job_id, status, external_application_id, confirmation_url, applied_at
		FROM applications WHERE user_id = $1 AND job_id = $2`
	var out models.Application
	err := r.db.QueryRow(ctx, query, userID, jobID).
		Scan(&out.ID, &out.UserID, &out.JobID, &out.Status, &out.ExternalApplicationID, &out.ConfirmationURL, &out.AppliedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Application{}, records.ErrNotFound
	}
	if err != nil {
		return models.Application{}, fmt.Errorf("failed to get application: %w", err)
	}
	return out, nil
}

// ---------------- ANSWER OPERATIONS ----------------

// AddAnswers inserts all rows in one batch.
func (r *Repository) AddAnswers(ctx context.Context, answers []models.QuestionAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	query := `
		INSERT INTO question_answers
			(application_id, question, answer, category, source, confidence, was_corrected, original_answer, correction_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for _, qa := range answers {
		batch.Queue(query, qa.ApplicationID, qa.Question, qa.Answer, qa.Category, qa.Source,
			qa.Confidence, qa.WasCorrected, qa.OriginalAnswer, qa.CorrectionReason)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert answers: %w", err)
	}
	return nil
}
