package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-autoapply/internal/models"
)

// Client is the REST backend of the application database.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) FindOrCreateCompany(ctx context.Context, name string) (models.Company, error) {
	var found []models.Company
	if err := c.do(ctx, http.MethodGet, "/companies?"+url.Values{"name": {name}}.Encode(), nil, &found); err != nil {
		return models.Company{}, err
	}
	if len(found) > 0 {
		return found[0], nil
	}
	var created models.Company
	err := c.do(ctx, http.MethodPost, "/companies", models.Company{Name: name}, &created)
	return created, err
}

func (c *Client) FindOrCreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	q := url.Values{"platform": {job.Platform}, "platform_job_id": {job.PlatformJobID}}
	var found []models.Job
	if err := c.do(ctx, http.MethodGet, "/jobs?"+q.Encode(), nil, &found); err != nil {
		return models.Job{}, err
	}
	if len(found) > 0 {
		return found[0], nil
	}
	var created models.Job
	err := c.do(ctx, http.MethodPost, "/jobs", job, &created)
	return created, err
}

func (c *Client) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	var created models.Application
	err := c.do(ctx, http.MethodPost, "/applications", app, &created)
	return created, err
}

func (c *Client) FindApplication(ctx context.Context, userID, jobID string) (models.Application, error) {
	q := url.Values{"user_id": {userID}, "job_id": {jobID}}
	var found []models.Application
	if err := c.do(ctx, http.MethodGet, "/applications?"+q.Encode(), nil, &found); err != nil {
		return models.Application{}, err
	}
	if len(found) == 0 {
		return models.Application{}, ErrNotFound
	}
	return found[0], nil
}

func (c *Client) AddAnswers(ctx context.Context, answers []models.QuestionAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/applications/"+url.PathEscape(answers[0].ApplicationID)+"/answers", answers, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrDuplicate
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, string(bodyBytes))
	}

	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
