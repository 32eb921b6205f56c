package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the intake assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// ConversationTTL governs how long an idle conversation keeps its
	// intake cursor before the janitor evicts it.
	ConversationTTL time.Duration

	GenAIMode       string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	GenerateTimeout time.Duration

	DatabaseURL string

	AdminToken string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "anesconsult"),
		AllowAnyOrigin:   false,
		GenAIMode:        envOrDefault("GENAI_MODE", "auto"),
		GeminiAPIKey:     envTrimmed("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		AdminToken:       envTrimmed("APP_ADMIN_TOKEN"),
		ShutdownTimeout:  15 * time.Second,
		ConversationTTL:  time.Hour,
		GenerateTimeout:  60 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationTTL, err = durationFromEnv("APP_CONVERSATION_TTL", cfg.ConversationTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerateTimeout, err = durationFromEnv("GENAI_TIMEOUT", cfg.GenerateTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.ConversationTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_CONVERSATION_TTL must be at least 1m")
	}
	if cfg.GenerateTimeout < time.Second {
		return Config{}, fmt.Errorf("GENAI_TIMEOUT must be at least 1s")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.GenAIMode)) {
	case "auto", "gemini", "mock":
	default:
		return Config{}, fmt.Errorf("invalid GENAI_MODE: %q (expected auto|gemini|mock)", cfg.GenAIMode)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
