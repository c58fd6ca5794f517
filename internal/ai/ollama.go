package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ollamaClient struct {
	baseURL    string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewOllamaClient talks to a local Ollama server on /api/chat or /api/generate.
func NewOllamaClient(baseURL, model, endpoint string, timeout time.Duration) Completer {
	if endpoint != "generate" {
		endpoint = "chat"
	}
	return &ollamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages,omitempty"`
	Prompt   string          `json:"prompt,omitempty"`
	System   string          `json:"system,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message,omitempty"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := ollamaRequest{Model: c.model, Stream: false}
	if c.endpoint == "chat" {
		reqBody.Messages = []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		}
	} else {
		reqBody.System = system
		reqBody.Prompt = user
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama returned status %d: %s", ErrTransport, resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		// streamed or token-suffixed bodies still carry one whole object
		obj, ok := ExtractJSON(string(bodyBytes))
		if !ok {
			return "", fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
		if err := json.Unmarshal([]byte(obj), &ollamaResp); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
	}

	if ollamaResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", ollamaResp.Error)
	}

	content := ollamaResp.Response
	if ollamaResp.Message != nil {
		content = ollamaResp.Message.Content
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}
