package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "test-secret")
	for _, k := range []string{"AI_PROVIDER_ORDER", "APP_TIMEZONE", "AI_CHUNK_SIZE", "AI_CHUNK_WINDOW", "AI_RESUMMARIZE_THRESHOLD", "AI_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.ChunkSize != 4000 || cfg.AI.ChunkWindow != 300 || cfg.AI.ResummarizeThreshold != 1000 {
		t.Fatalf("unexpected chunk defaults: %+v", cfg.AI)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.AI.Timeout)
	}
	if got := cfg.AI.ProviderOrder[len(cfg.AI.ProviderOrder)-1]; got != "heuristic" {
		t.Fatalf("last provider = %q", got)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("location = %v", cfg.Location)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("AI_PROVIDER_ORDER", "gemini, heuristic")
	t.Setenv("AI_CHUNK_SIZE", "1200")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.AI.ProviderOrder) != 2 || cfg.AI.ProviderOrder[0] != "gemini" {
		t.Fatalf("order = %v", cfg.AI.ProviderOrder)
	}
	if cfg.AI.ChunkSize != 1200 || cfg.AI.Timeout != 5*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg.AI)
	}
	if cfg.Location.String() != "Asia/Ho_Chi_Minh" {
		t.Fatalf("location = %v", cfg.Location)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	cfg := Config{DBDriver: "oracle"}
	if _, err := cfg.Dialector(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
