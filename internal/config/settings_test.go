package config

import (
	"context"
	"testing"
	"time"
)

func TestEnvSourceDefaults(t *testing.T) {
	settings, err := NewEnvSource().GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}

	if settings.DataSize != "medium" {
		t.Errorf("DataSize = %q, want %q", settings.DataSize, "medium")
	}
	if settings.ReadinessAttempts != 30 {
		t.Errorf("ReadinessAttempts = %d, want 30", settings.ReadinessAttempts)
	}
	if settings.ReadinessInterval != 2*time.Second {
		t.Errorf("ReadinessInterval = %v, want 2s", settings.ReadinessInterval)
	}
}

func TestEnvSourceOverrides(t *testing.T) {
	t.Setenv("DATA_SIZE", "small")
	t.Setenv("REGISTRY", "123456789012.dkr.ecr.us-east-1.amazonaws.com")
	t.Setenv("READINESS_ATTEMPTS", "5")
	t.Setenv("READINESS_INTERVAL", "500ms")

	settings, err := NewEnvSource().GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}

	if settings.DataSize != "small" {
		t.Errorf("DataSize = %q, want %q", settings.DataSize, "small")
	}
	if settings.Registry != "123456789012.dkr.ecr.us-east-1.amazonaws.com" {
		t.Errorf("Registry = %q", settings.Registry)
	}
	if settings.ReadinessAttempts != 5 {
		t.Errorf("ReadinessAttempts = %d, want 5", settings.ReadinessAttempts)
	}
	if settings.ReadinessInterval != 500*time.Millisecond {
		t.Errorf("ReadinessInterval = %v, want 500ms", settings.ReadinessInterval)
	}
}

func TestEnvSourceInvalidValues(t *testing.T) {
	t.Setenv("READINESS_ATTEMPTS", "lots")
	if _, err := NewEnvSource().GetSettings(context.Background()); err == nil {
		t.Error("GetSettings accepted non-numeric READINESS_ATTEMPTS")
	}
}

func TestEnvSourceGetParameter(t *testing.T) {
	t.Setenv("VAULT_ADDR", "https://vault.internal:8200")

	got, err := NewEnvSource().GetParameter(context.Background(), "VAULT_ADDR")
	if err != nil {
		t.Fatalf("GetParameter failed: %v", err)
	}
	if got != "https://vault.internal:8200" {
		t.Errorf("GetParameter = %q", got)
	}
}
