package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Adapter is the generation collaborator: it turns an assembled consultation
// prompt into answer text. Failures never carry partial text.
type Adapter interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewGeminiAdapter(cfg), nil
		}
		return NewMockAdapter(), nil
	case "gemini":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("gemini API key is required for gemini mode")
		}
		return NewGeminiAdapter(cfg), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported genai adapter mode %q", cfg.Mode)
	}
}
