package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIME_LIMIT_MIN_SECONDS", "")
	t.Setenv("SEED_STEPS", "")
	cfg := Load()
	if cfg.TimeLimitMinSeconds != 30 || cfg.TimeLimitMaxSeconds != 1800 {
		t.Fatalf("unexpected time limit bounds %d..%d", cfg.TimeLimitMinSeconds, cfg.TimeLimitMaxSeconds)
	}
	if cfg.RoundGenerationAttempts != 10 {
		t.Fatalf("expected 10 generation attempts, got %d", cfg.RoundGenerationAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIME_LIMIT_MIN_SECONDS", "60")
	t.Setenv("TIME_LIMIT_MAX_SECONDS", "120")
	t.Setenv("POINTS_FOR_SOLVING", "0")
	t.Setenv("SEED_STEPS", "-3")
	t.Setenv("SECURE_WEBSOCKETS", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()
	if cfg.TimeLimitMinSeconds != 60 || cfg.TimeLimitMaxSeconds != 120 {
		t.Fatalf("unexpected time limit bounds %d..%d", cfg.TimeLimitMinSeconds, cfg.TimeLimitMaxSeconds)
	}
	if cfg.PointsForSolving != 0 {
		t.Fatalf("expected zero points override, got %d", cfg.PointsForSolving)
	}
	if cfg.SeedSteps != Default().SeedSteps {
		t.Fatalf("expected negative seed steps to be ignored, got %d", cfg.SeedSteps)
	}
	if !cfg.SecureWebsockets {
		t.Fatalf("expected secure websockets")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr)
	}
}

func TestLoadClampsInvertedBounds(t *testing.T) {
	t.Setenv("TIME_LIMIT_MIN_SECONDS", "300")
	t.Setenv("TIME_LIMIT_MAX_SECONDS", "100")
	cfg := Load()
	if cfg.TimeLimitMaxSeconds != 300 {
		t.Fatalf("expected max clamped to min, got %d", cfg.TimeLimitMaxSeconds)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WIKI_USER_AGENT=from-file\nWIKI_API_URL=http://file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("WIKI_USER_AGENT", "from-env")
	t.Setenv("WIKI_API_URL", "")
	os.Unsetenv("WIKI_API_URL")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("WIKI_API_URL") })
	if got := os.Getenv("WIKI_USER_AGENT"); got != "from-env" {
		t.Fatalf("expected env value kept, got %q", got)
	}
	if got := os.Getenv("WIKI_API_URL"); got != "http://file" {
		t.Fatalf("expected file value loaded, got %q", got)
	}
}
