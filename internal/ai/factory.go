package ai

import (
	"context"
	"fmt"

	"go-autoapply/internal/config"
)

// NewCompleter builds the backend named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.OracleConfig) (Completer, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Endpoint, cfg.Timeout), nil
	case "claude":
		return NewClaudeClient(cfg.APIKey, cfg.Model), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	}
	return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
}
