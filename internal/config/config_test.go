package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != defaultListen || cfg.Reminder.Schedule != "@every 60s" || cfg.HourHeight != 50 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
listen: ":9090"
timezone: Asia/Kolkata
session:
  backend: sqlite
reminder:
  enabled: true
  window_minutes: 0
holidays:
  "2026-12-25": Christmas
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Session.Backend != "sqlite" || cfg.Session.Path != "./var/weekplan.db" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.ReminderWindow() != 15*time.Minute {
		t.Errorf("ReminderWindow = %v", cfg.ReminderWindow())
	}
	if cfg.MinDurationMinutes != 30 {
		t.Errorf("MinDurationMinutes = %d", cfg.MinDurationMinutes)
	}
	if cfg.Holidays["2026-12-25"] != "Christmas" {
		t.Errorf("Holidays = %v", cfg.Holidays)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Kolkata" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestNormalizeUnknownBackend(t *testing.T) {
	cfg := &Config{Session: SessionConfig{Backend: "redis"}}
	cfg.Normalize()
	if cfg.Session.Backend != "file" || cfg.Session.Path == "" {
		t.Errorf("Session = %+v", cfg.Session)
	}
}

func TestLocationUnknownZone(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus"}
	loc, err := cfg.Location()
	if err == nil {
		t.Errorf("expected error for unknown zone")
	}
	if loc != time.Local {
		t.Errorf("expected fallback to local, got %v", loc)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	cfg.Reminder.WebhookURL = "http://hooks.local/x"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Errorf("BasicAuth = %+v", got.BasicAuth)
	}
	if got.Reminder.WebhookURL != "http://hooks.local/x" {
		t.Errorf("WebhookURL = %q", got.Reminder.WebhookURL)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
