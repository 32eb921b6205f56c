package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.GenAIMode != "auto" {
		t.Fatalf("GenAIMode = %q, want %q", cfg.GenAIMode, "auto")
	}
	if cfg.ConversationTTL != time.Hour {
		t.Fatalf("ConversationTTL = %v, want %v", cfg.ConversationTTL, time.Hour)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("APP_CONVERSATION_TTL", "30m")
	t.Setenv("GENAI_MODE", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.ConversationTTL != 30*time.Minute {
		t.Fatalf("ConversationTTL = %v, want %v", cfg.ConversationTTL, 30*time.Minute)
	}
	if cfg.GenAIMode != "mock" {
		t.Fatalf("GenAIMode = %q, want %q", cfg.GenAIMode, "mock")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"short conversation ttl", "APP_CONVERSATION_TTL", "10s"},
		{"unparseable ttl", "APP_CONVERSATION_TTL", "soon"},
		{"unknown genai mode", "GENAI_MODE", "oracle"},
		{"short generate timeout", "GENAI_TIMEOUT", "10ms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q expected error", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_CONVERSATION_TTL",
		"APP_ADMIN_TOKEN",
		"GENAI_MODE",
		"GENAI_TIMEOUT",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"GEMINI_BASE_URL",
		"DATABASE_URL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
