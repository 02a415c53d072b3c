package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("BOOKING_API_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SubmitMaxAttempts != 3 {
		t.Fatalf("expected 3 submit attempts by default, got %d", cfg.SubmitMaxAttempts)
	}
	if cfg.SubmitBaseDelay != time.Second {
		t.Fatalf("expected default submit base delay, got %s", cfg.SubmitBaseDelay)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins by default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SubmissionBaseURL() != "http://localhost:8080" {
		t.Fatalf("expected submission base to fall back to public base URL, got %s", cfg.SubmissionBaseURL())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("PUBLIC_BASE_URL", "https://book.example.nl/")
	t.Setenv("BOOKING_API_URL", "https://api.example.nl/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://salon.nl, ,https://www.salon.nl")
	t.Setenv("SUBMIT_MAX_ATTEMPTS", "5")
	t.Setenv("SUBMIT_BASE_DELAY", "250ms")
	t.Setenv("RATE_LIMIT_PER_SECOND", "1.5")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" || cfg.Env != "production" {
		t.Fatalf("expected port/env overrides, got %s/%s", cfg.Port, cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.PublicBaseURL != "https://book.example.nl" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
	if cfg.SubmissionBaseURL() != "https://api.example.nl" {
		t.Fatalf("expected booking api override, got %s", cfg.SubmissionBaseURL())
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://www.salon.nl" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SubmitMaxAttempts != 5 || cfg.SubmitBaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected submit settings %d/%s", cfg.SubmitMaxAttempts, cfg.SubmitBaseDelay)
	}
	if cfg.RateLimitPerSecond != 1.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitPerSecond)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis TLS enabled")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SUBMIT_MAX_ATTEMPTS", "many")
	t.Setenv("SUBMIT_BASE_DELAY", "soon")
	cfg := Load()
	if cfg.SubmitMaxAttempts != 3 {
		t.Fatalf("expected fallback attempts, got %d", cfg.SubmitMaxAttempts)
	}
	if cfg.SubmitBaseDelay != time.Second {
		t.Fatalf("expected fallback delay, got %s", cfg.SubmitBaseDelay)
	}
}
