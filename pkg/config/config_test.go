package config

import (
	"os"
	"path/filepath"
	"testing"

	"pwkm/pkg/clock"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{EnvTimezone, EnvTasksCSV, EnvStateDir, EnvCalendar, EnvICSURL} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != clock.DefaultTimezone {
		t.Errorf("timezone = %q, want %q", cfg.Timezone, clock.DefaultTimezone)
	}
	if cfg.Calendar != "primary" {
		t.Errorf("calendar = %q, want primary", cfg.Calendar)
	}
	path := filepath.Join(home, ".config", "pwkm", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadFillsPartialFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".config", "pwkm")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	body := "timezone: Europe/Berlin\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q, want Europe/Berlin", cfg.Timezone)
	}
	if cfg.TasksCSV == "" || cfg.StateDir == "" || cfg.Calendar == "" {
		t.Errorf("missing fields not defaulted: %+v", cfg)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	isolateHome(t)
	t.Setenv(EnvTimezone, "Asia/Tokyo")
	t.Setenv(EnvTasksCSV, "/data/tasks.csv")
	t.Setenv(EnvICSURL, "https://example.com/cal.ics")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Asia/Tokyo" {
		t.Errorf("timezone = %q, want Asia/Tokyo", cfg.Timezone)
	}
	if cfg.TasksCSV != "/data/tasks.csv" {
		t.Errorf("tasks csv = %q", cfg.TasksCSV)
	}
	if cfg.ICSURL != "https://example.com/cal.ics" {
		t.Errorf("ics url = %q", cfg.ICSURL)
	}
}
