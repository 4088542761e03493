package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("AUTH_RATE_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("expected default port 5000, got %s", cfg.Port)
	}
	if cfg.JWTExpirationDur != 30*24*time.Hour {
		t.Errorf("expected 30 day token lifetime, got %s", cfg.JWTExpirationDur)
	}
	if cfg.AuthRateLimit != 5 || cfg.AuthRateBurst != 10 {
		t.Errorf("unexpected rate limit defaults: %v/%d", cfg.AuthRateLimit, cfg.AuthRateBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRES_IN", "1h")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("OVERDUE_SWEEP_SCHEDULE", "")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.JWTExpirationDur != time.Hour {
		t.Errorf("expected 1h, got %s", cfg.JWTExpirationDur)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.DBDriver)
	}
	if cfg.OverdueSweepSchedule != "" {
		t.Errorf("expected sweep to be disabled, got %q", cfg.OverdueSweepSchedule)
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "thirty days")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTExpirationDur != 30*24*time.Hour {
		t.Errorf("expected fallback to 720h, got %s", cfg.JWTExpirationDur)
	}
}

func TestLoadProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
	if cfg != nil {
		t.Error("expected no config on error")
	}
}

func TestLoadDevelopmentUsesFallbackSecret(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Errorf("expected development fallback secret, got %q", cfg.JWTSecret)
	}
}
