package genai

import (
	"context"
	"strings"
)

// MockAdapter provides deterministic local replies when no API key is
// configured. Useful for development and the httpapi tests.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	question := extractQuestion(prompt)
	if question == "" {
		return "我在這裡，請問您想了解什麼麻醉相關的問題？", nil
	}
	return "（測試模式）我收到了您的問題：" + question + "\n正式環境會由麻醉諮詢模型提供完整回答。", nil
}

// extractQuestion pulls the user's question back out of the assembled
// prompt so mock replies stay readable in the UI.
func extractQuestion(prompt string) string {
	const marker = "病人問題: "
	idx := strings.LastIndex(prompt, marker)
	if idx < 0 {
		return ""
	}
	rest := prompt[idx+len(marker):]
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
