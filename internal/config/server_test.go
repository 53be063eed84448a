package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/sandlot?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DisconnectGrace != 60*time.Second {
		t.Fatalf("DisconnectGrace = %v, want 60s", cfg.DisconnectGrace)
	}
	if cfg.JoinCodeTTL != time.Hour {
		t.Fatalf("JoinCodeTTL = %v, want 1h", cfg.JoinCodeTTL)
	}
	if cfg.SeedDemoData {
		t.Fatal("SeedDemoData = true, want false by default")
	}
}

func TestLoadServerRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://sandlot.db")
	t.Setenv("DISCONNECT_GRACE", "5s")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("SEED_DEMO_DATA", "1")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.DisconnectGrace != 5*time.Second {
		t.Fatalf("DisconnectGrace = %v, want 5s", cfg.DisconnectGrace)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("SweepInterval = %v, want 30s", cfg.SweepInterval)
	}
	if !cfg.SeedDemoData {
		t.Fatal("SeedDemoData = false, want true")
	}
}
