// Package config resolves the toolkit's configuration: a YAML file under
// the user's config directory, with environment variables taking
// precedence over the file and documented defaults filling the rest.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pwkm/pkg/clock"
)

const (
	xdgAppName = "pwkm"
	configFile = "config.yaml"

	// Environment overrides. Each wins over the config file.
	EnvTimezone = "LOCAL_TIMEZONE"
	EnvTasksCSV = "PWKM_TASKS_CSV"
	EnvStateDir = "PWKM_STATE_DIR"
	EnvCalendar = "PWKM_CALENDAR"
	EnvICSURL   = "PWKM_ICS_URL"
)

// Config is the resolved application configuration.
type Config struct {
	// Timezone is the IANA zone used for every date/time decision.
	Timezone string `yaml:"timezone"`

	// TasksCSV is the path of the task store file.
	TasksCSV string `yaml:"tasks_csv"`

	// StateDir holds the session timer and audit state files.
	StateDir string `yaml:"state_dir"`

	// Calendar is the Google Calendar ID queried for events.
	Calendar string `yaml:"calendar"`

	// ICSURL, when set, selects an ICS subscription as the event source
	// instead of the Google Calendar API.
	ICSURL string `yaml:"ics_url,omitempty"`
}

// Dir returns the application config directory (~/.config/pwkm).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// Default returns the in-memory default configuration.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Timezone: clock.DefaultTimezone,
		TasksCSV: filepath.Join(dir, "tasks.csv"),
		StateDir: dir,
		Calendar: "primary",
	}, nil
}

// Normalize fills missing values with defaults so older or partial
// config files keep working.
func (c *Config) Normalize() error {
	def, err := Default()
	if err != nil {
		return err
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.TasksCSV == "" {
		c.TasksCSV = def.TasksCSV
	}
	if c.StateDir == "" {
		c.StateDir = def.StateDir
	}
	if c.Calendar == "" {
		c.Calendar = def.Calendar
	}
	return nil
}

// Load reads the config file (creating a default one on first run),
// normalizes it, and applies environment overrides.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, configFile)

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg, err = Default()
		if err != nil {
			return nil, err
		}
		// First run: persist the defaults so they are discoverable.
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		if err := cfg.Normalize(); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvTasksCSV); v != "" {
		c.TasksCSV = v
	}
	if v := os.Getenv(EnvStateDir); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv(EnvCalendar); v != "" {
		c.Calendar = v
	}
	if v := os.Getenv(EnvICSURL); v != "" {
		c.ICSURL = v
	}
}

// Save writes the config atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pwkm-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
