package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoadReadsAPIAndSlack(t *testing.T) {
	dir := t.TempDir()
	content := `
[api]
base_url=https://analysis.internal.example/
timeout=45s

[log]
level=debug

[history]
enabled=false

[slack]
bot_token=xoxb-test
channel_id=C123
`
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("TRUTHGUARD_API_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.BaseURL != "https://analysis.internal.example" {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 45*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.API.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.History.Enabled {
		t.Fatalf("unexpected log/history config: %+v %+v", cfg.Log, cfg.History)
	}
	if cfg.Slack.BotToken != "xoxb-test" || cfg.Slack.ChannelID != "C123" {
		t.Fatalf("unexpected slack config: %+v", cfg.Slack)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRUTHGUARD_API_URL", "")
	t.Setenv("TRUTHGUARD_DB_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Fatalf("expected fallback host, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 2*time.Minute || !cfg.History.Enabled || cfg.Log.Level != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[api]
base_url=https://from-file.example
`
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	dbPath := filepath.Join(dir, "h.db")
	t.Setenv("TRUTHGUARD_API_URL", "http://localhost:9000/")
	t.Setenv("TRUTHGUARD_DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://localhost:9000" {
		t.Fatalf("expected env override, got %q", cfg.API.BaseURL)
	}
	if cfg.History.DBPath != dbPath {
		t.Fatalf("expected db path override, got %q", cfg.History.DBPath)
	}
}

func TestDotEnvSuppliesBaseURL(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TRUTHGUARD_API_URL=http://dotenv.example\n"), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRUTHGUARD_API_URL", "")
	os.Unsetenv("TRUTHGUARD_API_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://dotenv.example" {
		t.Fatalf("expected .env value, got %q", cfg.API.BaseURL)
	}
}
