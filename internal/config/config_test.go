package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("RENDERER_BASE_URL", "http://renderer.local")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Txn.MaxRetries != 3 || cfg.Txn.InitialBackoff != 50*time.Millisecond {
		t.Fatalf("unexpected txn defaults %+v", cfg.Txn)
	}
	if cfg.Reporting.CronSchedule != "0 6 1 * *" {
		t.Fatalf("unexpected cron schedule %q", cfg.Reporting.CronSchedule)
	}
	if cfg.Sheets.Enabled() || cfg.Redis.Enabled() {
		t.Fatal("optional integrations should be disabled by default")
	}
	if cfg.MongoDB.Bucket != "summary_images" {
		t.Fatalf("unexpected bucket %q", cfg.MongoDB.Bucket)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TXN_MAX_RETRIES", "")
	t.Setenv("REDIS_ADDR", "")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "TXN_MAX_RETRIES=5\nREDIS_ADDR=localhost:6379\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	// godotenv.Load never overrides variables that are already set, even empty ones.
	os.Unsetenv("TXN_MAX_RETRIES")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Txn.MaxRetries != 5 {
		t.Fatalf("expected 5 retries from env file, got %d", cfg.Txn.MaxRetries)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis to be enabled from env file")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"missing dsn", "DATABASE_DSN", "", "DATABASE_DSN"},
		{"unknown driver", "DATABASE_DRIVER", "oracle", "DATABASE_DRIVER"},
		{"missing secret", "AUTH_JWT_SECRET", "", "AUTH_JWT_SECRET"},
		{"missing renderer", "RENDERER_BASE_URL", "", "RENDERER_BASE_URL"},
		{"missing mongo", "MONGODB_URI", "", "MONGODB_URI"},
		{"bad retries", "TXN_MAX_RETRIES", "three", "TXN_MAX_RETRIES"},
		{"negative retries", "TXN_MAX_RETRIES", "-1", "TXN_MAX_RETRIES"},
		{"bad backoff", "TXN_INITIAL_BACKOFF", "soon", "TXN_INITIAL_BACKOFF"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus", "TIMEZONE"},
		{"half sheets", "GOOGLE_SHEETS_CREDENTIALS_PATH", "/tmp/creds.json", "GOOGLE_SHEET_SUMMARY_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(missingEnvFile(t))
			if err == nil {
				t.Fatalf("expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for nil config")
	}
}
