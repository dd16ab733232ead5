package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CFG_VALUE", "custom")
	if got := getEnv("CFG_VALUE", "default"); got != "custom" {
		t.Fatalf("getEnv returned %q, want custom", got)
	}

	// Empty environment value should fall back to default
	t.Setenv("CFG_EMPTY", "")
	if got := getEnv("CFG_EMPTY", "fallback"); got != "fallback" {
		t.Fatalf("getEnv returned %q, want fallback", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("CFG_COOLDOWN", "6m")
	if got := getEnvDuration("CFG_COOLDOWN", 7*time.Minute); got != 6*time.Minute {
		t.Fatalf("getEnvDuration returned %v, want 6m", got)
	}

	// Bare numbers are minutes
	t.Setenv("CFG_COOLDOWN", "8")
	if got := getEnvDuration("CFG_COOLDOWN", 7*time.Minute); got != 8*time.Minute {
		t.Fatalf("getEnvDuration returned %v, want 8m", got)
	}

	t.Setenv("CFG_COOLDOWN", "not-a-duration")
	if got := getEnvDuration("CFG_COOLDOWN", 7*time.Minute); got != 7*time.Minute {
		t.Fatalf("getEnvDuration returned %v, want the default", got)
	}
}

func TestLoad(t *testing.T) {
	// Ensure defaults when env vars are empty.
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SEED", "")
	t.Setenv("FATIGUE_COOLDOWN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_COACH_MODEL", "")
	t.Setenv("INFERENCE_BASE_URL", "")
	t.Setenv("INFERENCE_API_KEY", "")

	cfg := Load()
	if cfg.Port != "8080" || cfg.DatabaseURL == "" || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Seed {
		t.Fatalf("expected Seed default false")
	}
	if cfg.FatigueCooldown != 7*time.Minute {
		t.Fatalf("expected FatigueCooldown default 7m, got %v", cfg.FatigueCooldown)
	}

	// Custom values override defaults
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED", "true")
	t.Setenv("FATIGUE_COOLDOWN", "5m")
	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("OPENAI_COACH_MODEL", "model")
	t.Setenv("INFERENCE_BASE_URL", "https://inference.example.com")
	t.Setenv("INFERENCE_API_KEY", "secret")

	cfg = Load()
	if cfg.Port != "9090" || cfg.DatabaseURL != "postgres://example" || cfg.LogLevel != "debug" || !cfg.Seed {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.FatigueCooldown != 5*time.Minute {
		t.Fatalf("cooldown override missing: %v", cfg.FatigueCooldown)
	}
	if cfg.OpenAIAPIKey != "key" || cfg.OpenAICoachModel != "model" {
		t.Fatalf("openai env overrides missing: %+v", cfg)
	}
	if cfg.InferenceBaseURL != "https://inference.example.com" || cfg.InferenceAPIKey != "secret" {
		t.Fatalf("inference env overrides missing: %+v", cfg)
	}
}
