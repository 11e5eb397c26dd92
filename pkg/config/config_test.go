package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ESTAGIO_AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Notification.AlertWindowDays != 3 {
		t.Fatalf("expected alert window 3, got %d", cfg.Notification.AlertWindowDays)
	}
	if cfg.Notification.SweepInterval != time.Hour {
		t.Fatalf("expected sweep interval 1h, got %s", cfg.Notification.SweepInterval)
	}
	if cfg.Storage.MaxUploadBytes() != 10<<20 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.Storage.MaxUploadBytes())
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Fatalf("expected secret from environment, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("ESTAGIO_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("ESTAGIO_NOTIFICATION_ALERT_WINDOW_DAYS", "5")
	t.Setenv("ESTAGIO_DATABASE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Notification.AlertWindowDays != 5 {
		t.Fatalf("expected alert window 5, got %d", cfg.Notification.AlertWindowDays)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("expected memory driver, got %q", cfg.Database.Driver)
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "memory"},
		Mail:     MailConfig{Driver: "log"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
	cfg.Auth.JWTSecret = "x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
