package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("expected default addr, got %s", cfg.Addr())
	}
	if cfg.Overview.CacheTTL != 5*time.Second {
		t.Fatalf("expected 5s cache ttl, got %s", cfg.Overview.CacheTTL)
	}
	if cfg.Database.ConnectTimeout != 5*time.Second || cfg.Database.StatementTimeout != 15*time.Second {
		t.Fatalf("unexpected db timeouts %s/%s", cfg.Database.ConnectTimeout, cfg.Database.StatementTimeout)
	}
	if cfg.Queue.ImportQueue == cfg.Queue.RelayQueue {
		t.Fatalf("default import and relay queues collide on %q", cfg.Queue.ImportQueue)
	}
	if cfg.Queue.RelaySpec != "@every 30s" {
		t.Fatalf("unexpected relay spec %q", cfg.Queue.RelaySpec)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %s", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OVERVIEW_CACHE_TTL", "0s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("OUTBOX_RELAY_GRACE", "2m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Overview.CacheTTL != 0 {
		t.Fatalf("expected cache disabled, got %s", cfg.Overview.CacheTTL)
	}
	if got := cfg.HTTP.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
	if cfg.Queue.RelayGrace != 2*time.Minute {
		t.Fatalf("expected 2m grace, got %s", cfg.Queue.RelayGrace)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.Database.RunMigrations {
		t.Fatalf("expected migrations disabled")
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "eighty")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid SERVER_PORT")
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing JWT_SECRET error")
	}

	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.InMemory() {
		t.Fatalf("expected in-memory mode without DATABASE_URL")
	}

	cfg.Database.URL = "postgres://localhost/test"
	if cfg.InMemory() {
		t.Fatalf("expected postgres mode")
	}
}

func TestValidateDevSuperuserID(t *testing.T) {
	cfg := &Config{
		Auth:  AuthConfig{JWTSecret: "secret", DevSuperuserID: "not-a-uuid"},
		Queue: QueueConfig{ImportQueue: "default", RelayQueue: "outbox", RelayBatch: 10, RelayGrace: time.Minute},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid DEV_SUPERUSER_ID error")
	}

	cfg.Auth.DevSuperuserID = "6f1c2a9e-3b7d-4c1e-9a55-2d8f0e4b7c31"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsSharedImportQueue(t *testing.T) {
	cfg := &Config{
		Auth:  AuthConfig{JWTSecret: "secret"},
		Queue: QueueConfig{ImportQueue: "outbox", RelayQueue: "outbox", RelayBatch: 10, RelayGrace: time.Minute},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when import and relay queues are the same")
	}

	cfg.Queue.ImportQueue = "default"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore Chdir: %v", err)
		}
	})
}
