package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/checkpay")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.JWTTTL() != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LoginMaxAttempts != 5 || cfg.LoginWindow() != 10*time.Minute {
		t.Fatalf("unexpected limiter defaults: %+v", cfg)
	}
	if cfg.MaxImageBytes != 10<<20 {
		t.Fatalf("unexpected image limit: %d", cfg.MaxImageBytes)
	}
}

func TestLoadConfig_BootstrapUsers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOOTSTRAP_USERS", "Rob:Sparky123,ana:pw")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.BootstrapUsers) != 2 || cfg.BootstrapUsers["Rob"] != "Sparky123" || cfg.BootstrapUsers["ana"] != "pw" {
		t.Fatalf("unexpected users: %+v", cfg.BootstrapUsers)
	}
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/checkpay")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadConfig_RejectsNonPositiveTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_TTL_HOURS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestLoadClientConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "backend:\n  url: http://files.example:9000\n  timeout: 5s\nstorage:\n  dir: " + dir + "\noutput: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHECKPAY_BACKEND_URL", "http://env.example:7000")
	t.Setenv("CHECKPAY_CAPTURE_MAX_BYTES", "2048")

	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.URL != "http://env.example:7000" {
		t.Fatalf("env should override file, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 5*time.Second || cfg.Storage.Dir != dir || cfg.Output != OutputJSON {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Capture.MaxBytes != 2048 {
		t.Fatalf("unexpected max bytes: %d", cfg.Capture.MaxBytes)
	}
}

func TestLoadClientConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadClientConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:8080" || cfg.Backend.Timeout != 30*time.Second || cfg.Output != OutputTable {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Capture.MaxBytes != 10<<20 {
		t.Fatalf("unexpected max bytes: %d", cfg.Capture.MaxBytes)
	}
}

func TestLoadClientConfig_ExplicitMissingFile(t *testing.T) {
	if _, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestClientConfig_ValidateOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadClientConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Output = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown output")
	}
}
